package device

import (
	"sort"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// A discrete GPU outranks anything integrated regardless of further
// criteria, so the bonus dwarfs every other score contribution.
const discreteScoreBonus = 100

// Requirements is the caller-declared capability floor a device must meet.
// These are configuration constants, not runtime-negotiated values.
type Requirements struct {
	APIMajor   uint32
	APIMinor   uint32
	Features   FeatureSet
	Extensions []string

	// DedicatedTransfer asks for a transfer family without graphics
	// capability; when no such family exists, transfer aliases graphics.
	DedicatedTransfer bool
}

// DeviceExtensions returns the full extension list to enable on the
// logical device: the explicitly required extensions plus the ones backing
// the required feature set, deduplicated in declaration order. A selected
// device advertises all of them, the feature filter saw to that.
func (r Requirements) DeviceExtensions() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, name := range append(append([]string{}, r.Extensions...), r.Features.ExtensionNames()...) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// FindQueueFamilies assigns each role the first family index, by
// enumeration order, whose capabilities satisfy it. A single family may
// serve several roles. With dedicatedTransfer set, the transfer role only
// accepts transfer-without-graphics families during the scan and falls
// back to the graphics family afterwards, which means the scan cannot end
// early; without it the scan stops as soon as all roles are assigned.
func FindQueueFamilies(families []QueueFamilyCaps, dedicatedTransfer bool) QueueRoles {
	var roles QueueRoles
	for i, family := range families {
		if roles.Graphics == nil && family.Graphics() {
			roles.Graphics = familyIndex(i)
		}
		if roles.Present == nil && family.CanPresent {
			roles.Present = familyIndex(i)
		}
		if roles.Transfer == nil && family.Transfer() {
			if !dedicatedTransfer || !family.Graphics() {
				roles.Transfer = familyIndex(i)
			}
		}
		if !dedicatedTransfer && roles.Complete() {
			break
		}
	}
	if dedicatedTransfer && roles.Transfer == nil {
		roles.Transfer = roles.Graphics
	}
	return roles
}

func familyIndex(i int) *uint32 {
	idx := uint32(i)
	return &idx
}

// HasExtensions reports whether every required name appears among the
// available ones. Order-independent and duplicate-tolerant on both sides.
func HasExtensions(available, required []string) bool {
	names := make(map[string]struct{}, len(available))
	for _, name := range available {
		names[name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := names[name]; !ok {
			return false
		}
	}
	return true
}

// Suitable applies the hard filters to one candidate, in order: API
// version (component-wise, never a combined integer compare), feature
// flags, queue completeness, extension support, surface adequacy. The
// resolved queue roles are returned so the caller never re-runs the scan.
func Suitable(profile Profile, snapshot SurfaceSnapshot, req Requirements) (QueueRoles, bool) {
	if profile.APIMajor < req.APIMajor {
		return QueueRoles{}, false
	}
	if profile.APIMajor == req.APIMajor && profile.APIMinor < req.APIMinor {
		return QueueRoles{}, false
	}
	if !profile.Features.Satisfies(req.Features) {
		return QueueRoles{}, false
	}
	roles := FindQueueFamilies(profile.QueueFamilies, req.DedicatedTransfer)
	if !roles.Complete() {
		return QueueRoles{}, false
	}
	if !HasExtensions(profile.Extensions, req.Extensions) {
		return QueueRoles{}, false
	}
	if !snapshot.Adequate() {
		return QueueRoles{}, false
	}
	return roles, true
}

// Score ranks a device that already passed the hard filters. Filtering and
// scoring stay separate so further criteria can be added here without
// touching the filters.
func Score(profile Profile) int {
	score := 0
	if profile.Type == vk.PhysicalDeviceTypeDiscreteGpu {
		score += discreteScoreBonus
	}
	return score
}

// Candidate pairs a device profile with its surface snapshot for ranking.
type Candidate struct {
	Profile Profile
	Surface SurfaceSnapshot
}

// Ranked is one surviving candidate with its score, resolved queue roles
// and discovery index.
type Ranked struct {
	Candidate
	Index int
	Score int
	Roles QueueRoles
}

// Rank drops candidates failing the hard filters and orders the survivors
// by score, highest first. Equal scores keep enumeration order, so the
// first discovered device wins a tie. The tie-break is part of the
// comparator on purpose; it is observable behaviour, not an accident of
// container ordering.
func Rank(candidates []Candidate, req Requirements) []Ranked {
	var table []Ranked
	for i, candidate := range candidates {
		roles, ok := Suitable(candidate.Profile, candidate.Surface, req)
		if !ok {
			continue
		}
		table = append(table, Ranked{
			Candidate: candidate,
			Index:     i,
			Score:     Score(candidate.Profile),
			Roles:     roles,
		})
	}
	sort.Slice(table, func(a, b int) bool {
		if table[a].Score != table[b].Score {
			return table[a].Score > table[b].Score
		}
		return table[a].Index < table[b].Index
	})
	return table
}

// Selection is the selector's result: the winning handle together with the
// data computed about it during filtering, carried forward so later stages
// never re-query the device.
type Selection struct {
	Handle  vk.PhysicalDevice
	Profile Profile
	Roles   QueueRoles
	Surface SurfaceSnapshot
	Score   int
}

// Select profiles every candidate device against the surface, ranks the
// ones meeting the requirements and returns the best. ErrNoSuitableDevice
// is fatal to startup; hardware will not change a millisecond later.
func Select(devices []vk.PhysicalDevice, surface vk.Surface, req Requirements) (Selection, error) {
	candidates := make([]Candidate, 0, len(devices))
	for _, dev := range devices {
		snapshot, err := QuerySurfaceSupport(dev, surface)
		if err != nil {
			// An unqueryable surface pairing just fails the adequacy
			// filter; other devices may still be fine.
			snapshot = SurfaceSnapshot{}
		}
		candidates = append(candidates, Candidate{
			Profile: QueryProfile(dev, surface),
			Surface: snapshot,
		})
	}

	table := Rank(candidates, req)
	if len(table) == 0 {
		return Selection{}, errors.Wrapf(ErrNoSuitableDevice, "%d device(s) inspected", len(devices))
	}

	best := table[0]
	return Selection{
		Handle:  devices[best.Index],
		Profile: best.Profile,
		Roles:   best.Roles,
		Surface: best.Surface,
		Score:   best.Score,
	}, nil
}
