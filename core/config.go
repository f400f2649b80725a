package core

import (
	"strconv"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lumen3d/lumen/device"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance InstanceConfiguration
	Renderer RendererConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the interval between window event
	// polls, in milliseconds
	EventPollDelay int
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	ScreenWidth  uint32
	ScreenHeight uint32

	// FrameOverlap is the number of frames recorded concurrently,
	// each with its own command pool and buffer
	FrameOverlap int

	PresentMode vk.PresentMode
	ClearColor  glm.Vec4

	Device device.Requirements
}

// The validation layer enabled in debug mode. Shipped with every
// current Vulkan SDK.
const validationLayerName = "VK_LAYER_KHRONOS_validation"

// LoadConfiguration builds the engine configuration from LUMEN_*
// environment variables, falling back to defaults fit for a desktop
// session. Call godotenv.Load beforehand if a .env file should apply.
func LoadConfiguration() Configuration {
	cfg := Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: envInt("LUMEN_FPS", 60),
			EventPollDelay:  envInt("LUMEN_EVENT_POLL_MS", 2),
		},
		Instance: InstanceConfiguration{
			DebugMode: envBool("LUMEN_DEBUG", false),
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  uint32(envInt("LUMEN_WIDTH", 800)),
			ScreenHeight: uint32(envInt("LUMEN_HEIGHT", 600)),
			FrameOverlap: envInt("LUMEN_FRAME_OVERLAP", 2),
			PresentMode:  vk.PresentModeMailbox,
			ClearColor:   glm.Vec4{0.05, 0.05, 0.05, 1.0},
			Device: device.Requirements{
				APIMajor: 1,
				APIMinor: 1,
				Features: device.FeatureSet{
					DynamicRendering:    true,
					Synchronization2:    true,
					BufferDeviceAddress: true,
					DescriptorIndexing:  true,
				},
				Extensions: []string{
					device.SwapchainExtensionName,
				},
				DedicatedTransfer: envBool("LUMEN_DEDICATED_TRANSFER", false),
			},
		},
	}
	if cfg.Instance.DebugMode {
		cfg.Instance.Layers = append(cfg.Instance.Layers, validationLayerName)
	}
	return cfg
}

func envInt(key string, fallback int) int {
	value, err := strconv.Atoi(envy.Get(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(envy.Get(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}
