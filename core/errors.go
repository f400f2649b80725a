package core

import "github.com/pkg/errors"

// Bootstrap failures, in the order the stages run. Each stage wraps its
// sentinel with call-site detail, so errors.Is picks the stage and the
// message carries the driver's complaint.
var (
	ErrWindowCreation          = errors.New("window creation failed")
	ErrExtensionQuery          = errors.New("surface extension query failed")
	ErrValidationUnsupported   = errors.New("requested validation layer is not available")
	ErrInstanceCreation        = errors.New("vulkan instance creation failed")
	ErrDebugHookSetup          = errors.New("debug report hook setup failed")
	ErrSurfaceCreation         = errors.New("presentation surface creation failed")
	ErrCommandPoolCreation     = errors.New("command pool creation failed")
	ErrCommandBufferAllocation = errors.New("command buffer allocation failed")

	// ErrInstanceLive rejects a second live instance in the same process.
	// The loader state behind vk.Init is process-global.
	ErrInstanceLive = errors.New("a vulkan instance is already live in this process")
)
