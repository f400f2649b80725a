package device_test

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
)

func graphicsFamily(present bool) device.QueueFamilyCaps {
	return device.QueueFamilyCaps{
		Flags:      vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit),
		CanPresent: present,
	}
}

func transferOnlyFamily() device.QueueFamilyCaps {
	return device.QueueFamilyCaps{
		Flags: vk.QueueFlags(vk.QueueTransferBit),
	}
}

func presentTransferFamily() device.QueueFamilyCaps {
	return device.QueueFamilyCaps{
		Flags:      vk.QueueFlags(vk.QueueTransferBit),
		CanPresent: true,
	}
}

func adequateSnapshot() device.SurfaceSnapshot {
	return device.SurfaceSnapshot{
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}
}

func capableProfile(deviceType vk.PhysicalDeviceType) device.Profile {
	return device.Profile{
		Name:     "test device",
		Type:     deviceType,
		APIMajor: 1,
		APIMinor: 3,
		Features: device.FeatureSet{
			DynamicRendering:  true,
			SamplerAnisotropy: true,
		},
		Extensions: []string{device.SwapchainExtensionName},
		QueueFamilies: []device.QueueFamilyCaps{
			graphicsFamily(true),
		},
	}
}

func baseRequirements() device.Requirements {
	return device.Requirements{
		APIMajor:   1,
		APIMinor:   1,
		Features:   device.FeatureSet{DynamicRendering: true},
		Extensions: []string{device.SwapchainExtensionName},
	}
}

func TestFindQueueFamiliesFirstMatchWins(t *testing.T) {
	families := []device.QueueFamilyCaps{
		graphicsFamily(false),
		presentTransferFamily(),
	}

	roles := device.FindQueueFamilies(families, false)
	if !roles.Complete() {
		t.Fatal("expected complete roles")
	}
	if *roles.Graphics != 0 {
		t.Errorf("graphics role: got family %d, want 0", *roles.Graphics)
	}
	if *roles.Present != 1 {
		t.Errorf("present role: got family %d, want 1", *roles.Present)
	}
	if *roles.Transfer != 0 {
		t.Errorf("transfer role: got family %d, want 0", *roles.Transfer)
	}
}

func TestFindQueueFamiliesDedicatedTransfer(t *testing.T) {
	families := []device.QueueFamilyCaps{
		graphicsFamily(true),
		transferOnlyFamily(),
	}

	roles := device.FindQueueFamilies(families, true)
	if !roles.Complete() {
		t.Fatal("expected complete roles")
	}
	if *roles.Transfer != 1 {
		t.Errorf("transfer role: got family %d, want dedicated family 1", *roles.Transfer)
	}
}

func TestFindQueueFamiliesDedicatedTransferFallback(t *testing.T) {
	families := []device.QueueFamilyCaps{
		graphicsFamily(true),
	}

	roles := device.FindQueueFamilies(families, true)
	if !roles.Complete() {
		t.Fatal("expected complete roles")
	}
	if *roles.Transfer != *roles.Graphics {
		t.Errorf("transfer role: got family %d, want graphics alias %d", *roles.Transfer, *roles.Graphics)
	}
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	families := []device.QueueFamilyCaps{
		graphicsFamily(false),
	}

	roles := device.FindQueueFamilies(families, false)
	if roles.Complete() {
		t.Error("roles should be incomplete without a presentation family")
	}
	if roles.Present != nil {
		t.Error("present role should be unassigned")
	}
}

func TestUniqueFamiliesCollapsesAliases(t *testing.T) {
	shared := uint32(0)
	other := uint32(2)
	roles := device.QueueRoles{Graphics: &shared, Present: &shared, Transfer: &other}

	unique := roles.UniqueFamilies()
	if len(unique) != 2 {
		t.Fatalf("got %d unique families, want 2", len(unique))
	}
	if unique[0] != 0 || unique[1] != 2 {
		t.Errorf("got families %v, want [0 2]", unique)
	}
}

func TestHasExtensions(t *testing.T) {
	available := []string{"b", "a", "a", "c"}

	if !device.HasExtensions(available, []string{"a", "c"}) {
		t.Error("present extensions reported missing")
	}
	if !device.HasExtensions(available, nil) {
		t.Error("empty requirement must always pass")
	}
	if device.HasExtensions(available, []string{"a", "d"}) {
		t.Error("missing extension reported present")
	}
}

func TestFeatureSetSatisfies(t *testing.T) {
	have := device.FeatureSet{DynamicRendering: true, Synchronization2: true}

	if !have.Satisfies(device.FeatureSet{DynamicRendering: true}) {
		t.Error("subset requirement should pass")
	}
	if have.Satisfies(device.FeatureSet{DynamicRendering: true, BufferDeviceAddress: true}) {
		t.Error("one missing feature must fail the whole set")
	}
	if !have.Satisfies(device.FeatureSet{}) {
		t.Error("empty requirement should pass")
	}
}

func TestSuitableFilters(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*device.Profile, *device.SurfaceSnapshot)
		suitable bool
	}{
		{"meets all requirements", func(p *device.Profile, s *device.SurfaceSnapshot) {}, true},
		{"api major too low", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.APIMajor = 0
			p.APIMinor = 9
		}, false},
		{"api minor too low", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.APIMinor = 0
		}, false},
		{"higher major trumps lower minor", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.APIMajor = 2
			p.APIMinor = 0
		}, true},
		{"missing feature", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.Features.DynamicRendering = false
		}, false},
		{"missing extension", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.Extensions = nil
		}, false},
		{"no presentation family", func(p *device.Profile, s *device.SurfaceSnapshot) {
			p.QueueFamilies = []device.QueueFamilyCaps{graphicsFamily(false)}
		}, false},
		{"no surface formats", func(p *device.Profile, s *device.SurfaceSnapshot) {
			s.Formats = nil
		}, false},
		{"no present modes", func(p *device.Profile, s *device.SurfaceSnapshot) {
			s.PresentModes = nil
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := capableProfile(vk.PhysicalDeviceTypeDiscreteGpu)
			snapshot := adequateSnapshot()
			tt.mutate(&profile, &snapshot)

			roles, ok := device.Suitable(profile, snapshot, baseRequirements())
			if ok != tt.suitable {
				t.Fatalf("got suitable=%v, want %v", ok, tt.suitable)
			}
			if ok && !roles.Complete() {
				t.Error("suitable device must come with complete roles")
			}
		})
	}
}

func TestRequirementsDeviceExtensions(t *testing.T) {
	req := device.Requirements{
		Features: device.FeatureSet{
			DynamicRendering:  true,
			Synchronization2:  true,
			SamplerAnisotropy: true,
		},
		Extensions: []string{
			device.SwapchainExtensionName,
			device.DynamicRenderingExtensionName,
		},
	}

	got := req.DeviceExtensions()
	want := []string{
		device.SwapchainExtensionName,
		device.DynamicRenderingExtensionName,
		device.Synchronization2ExtensionName,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFeatureSetExtensionNames(t *testing.T) {
	features := device.FeatureSet{
		BufferDeviceAddress: true,
		SamplerAnisotropy:   true,
	}

	names := features.ExtensionNames()
	if len(names) != 1 || names[0] != device.BufferDeviceAddressExtensionName {
		t.Errorf("got %v, want only the buffer device address extension", names)
	}
	if len(device.FeatureSet{}.ExtensionNames()) != 0 {
		t.Error("empty feature set must map to no extensions")
	}
}

func TestRankPrefersDiscreteGpu(t *testing.T) {
	candidates := []device.Candidate{
		{Profile: capableProfile(vk.PhysicalDeviceTypeIntegratedGpu), Surface: adequateSnapshot()},
		{Profile: capableProfile(vk.PhysicalDeviceTypeDiscreteGpu), Surface: adequateSnapshot()},
	}

	table := device.Rank(candidates, baseRequirements())
	if len(table) != 2 {
		t.Fatalf("got %d ranked candidates, want 2", len(table))
	}
	if table[0].Index != 1 {
		t.Errorf("winner index %d, want the discrete device at 1", table[0].Index)
	}
	if table[0].Score <= table[1].Score {
		t.Error("discrete device must outscore the integrated one")
	}
}

func TestRankTieBreakKeepsDiscoveryOrder(t *testing.T) {
	candidates := []device.Candidate{
		{Profile: capableProfile(vk.PhysicalDeviceTypeDiscreteGpu), Surface: adequateSnapshot()},
		{Profile: capableProfile(vk.PhysicalDeviceTypeDiscreteGpu), Surface: adequateSnapshot()},
	}

	for run := 0; run < 10; run++ {
		table := device.Rank(candidates, baseRequirements())
		if len(table) != 2 {
			t.Fatalf("got %d ranked candidates, want 2", len(table))
		}
		if table[0].Index != 0 {
			t.Fatalf("tie must resolve to the first discovered device, got index %d", table[0].Index)
		}
	}
}

func TestRankFiltersBeforeScoring(t *testing.T) {
	// A discrete GPU that fails a hard filter must lose to an
	// integrated one that passes; score never overrides filtering.
	failing := capableProfile(vk.PhysicalDeviceTypeDiscreteGpu)
	failing.Extensions = nil

	candidates := []device.Candidate{
		{Profile: failing, Surface: adequateSnapshot()},
		{Profile: capableProfile(vk.PhysicalDeviceTypeIntegratedGpu), Surface: adequateSnapshot()},
	}

	table := device.Rank(candidates, baseRequirements())
	if len(table) != 1 {
		t.Fatalf("got %d ranked candidates, want 1", len(table))
	}
	if table[0].Index != 1 {
		t.Errorf("winner index %d, want the passing device at 1", table[0].Index)
	}
}
