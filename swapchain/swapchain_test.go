package swapchain_test

import (
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
	"github.com/lumen3d/lumen/swapchain"
)

func TestChooseSurfaceFormatPrefersSRGB(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	chosen := swapchain.ChooseSurfaceFormat(formats)
	if chosen.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("got format %d, want FormatB8g8r8a8Srgb", chosen.Format)
	}
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	chosen := swapchain.ChooseSurfaceFormat(formats)
	if chosen.Format != vk.FormatR8g8b8a8Unorm {
		t.Errorf("got format %d, want the first reported format", chosen.Format)
	}
}

func TestChooseSurfaceFormatEmptyList(t *testing.T) {
	chosen := swapchain.ChooseSurfaceFormat(nil)
	if chosen.Format != vk.FormatUndefined {
		t.Errorf("got format %d, want the zero value for an empty list", chosen.Format)
	}
}

func TestDestroyToleratesAbsentSwapchain(t *testing.T) {
	// Rebuild failure paths leave the renderer holding nil until a new
	// swapchain exists; the later teardown must still be safe to run.
	var sc *swapchain.Swapchain
	sc.Destroy()
}

func TestChoosePresentModeDesiredAvailable(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}

	chosen := swapchain.ChoosePresentMode(modes, vk.PresentModeMailbox)
	if chosen != vk.PresentModeMailbox {
		t.Errorf("got mode %d, want PresentModeMailbox", chosen)
	}
}

func TestChoosePresentModeFallsBackToFifo(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}

	chosen := swapchain.ChoosePresentMode(modes, vk.PresentModeMailbox)
	if chosen != vk.PresentModeFifo {
		t.Errorf("got mode %d, want PresentModeFifo", chosen)
	}
}

func TestChooseExtentFixedIsAuthoritative(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 1024, Height: 768},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	extent := swapchain.ChooseExtent(capabilities, vk.Extent2D{Width: 800, Height: 600})
	if extent.Width != 1024 || extent.Height != 768 {
		t.Errorf("got %dx%d, want the surface's fixed 1024x768", extent.Width, extent.Height)
	}
}

func TestChooseExtentFlexibleClampsDesired(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	extent := swapchain.ChooseExtent(capabilities, vk.Extent2D{Width: 800, Height: 600})
	if extent.Width != 800 || extent.Height != 600 {
		t.Errorf("got %dx%d, want the in-range 800x600 unchanged", extent.Width, extent.Height)
	}

	extent = swapchain.ChooseExtent(capabilities, vk.Extent2D{Width: 10000, Height: 10000})
	if extent.Width != 4096 || extent.Height != 4096 {
		t.Errorf("got %dx%d, want clamped 4096x4096", extent.Width, extent.Height)
	}

	extent = swapchain.ChooseExtent(capabilities, vk.Extent2D{Width: 1, Height: 1})
	if extent.Width != 64 || extent.Height != 64 {
		t.Errorf("got %dx%d, want clamped 64x64", extent.Width, extent.Height)
	}
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{
		{"one above minimum", 2, 8, 3},
		{"clamped by maximum", 2, 2, 2},
		{"unbounded maximum", 2, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capabilities := vk.SurfaceCapabilities{
				MinImageCount: tt.min,
				MaxImageCount: tt.max,
			}
			if got := swapchain.ChooseImageCount(capabilities); got != tt.want {
				t.Errorf("got %d images, want %d", got, tt.want)
			}
		})
	}
}

func TestNegotiateComposition(t *testing.T) {
	snapshot := device.SurfaceSnapshot{
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  8,
			CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo},
	}

	cfg := swapchain.Negotiate(snapshot, vk.PresentModeMailbox, vk.Extent2D{Width: 800, Height: 600})
	if cfg.Format.Format != vk.FormatB8g8r8a8Srgb {
		t.Errorf("got format %d, want FormatB8g8r8a8Srgb", cfg.Format.Format)
	}
	if cfg.PresentMode != vk.PresentModeFifo {
		t.Errorf("got mode %d, want the FIFO fallback", cfg.PresentMode)
	}
	if cfg.Extent.Width != 800 || cfg.Extent.Height != 600 {
		t.Errorf("got extent %dx%d, want 800x600", cfg.Extent.Width, cfg.Extent.Height)
	}
	if cfg.ImageCount != 3 {
		t.Errorf("got %d images, want 3", cfg.ImageCount)
	}
}
