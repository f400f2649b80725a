package device

import "github.com/pkg/errors"

var (
	// ErrNoSuitableDevice means no visible device satisfied the hard
	// requirements. This is a configuration problem, not a transient one,
	// and must never be retried automatically.
	ErrNoSuitableDevice = errors.New("no suitable physical device found")

	// ErrDeviceCreation wraps a failed vk.CreateDevice call.
	ErrDeviceCreation = errors.New("logical device creation failed")

	// ErrInvalidState marks a violated precondition, such as building a
	// logical device from incomplete queue roles. It indicates a
	// programming error in the caller, not a runtime condition.
	ErrInvalidState = errors.New("invalid state")
)
