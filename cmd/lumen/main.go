package main

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/lumen3d/lumen/core"
)

func init() {
	// SDL and the Vulkan loader want the main thread.
	runtime.LockOSThread()
}

// Essential globals
var (
	vkInstance core.Instance
	vkRenderer core.Renderer
	sdlWindow  *sdl.Window
	sdlSurface unsafe.Pointer
)

// Pause between redraw attempts while the window sits minimized.
const minimizedPollDelay = 100 * time.Millisecond

func newWindow(cfg core.RendererConfiguration) (*sdl.Window, error) {
	window, err := sdl.CreateWindow("Lumen",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, errors.Wrap(core.ErrWindowCreation, err.Error())
	}
	return window, nil
}

func main() {
	godotenv.Load()
	configuration := core.LoadConfiguration()
	if configuration.Instance.DebugMode {
		log.SetLevel(log.DebugLevel)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		log.Fatal(err)
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := newWindow(configuration.Renderer)
	if err != nil {
		log.Fatal(err)
	}
	sdlWindow = window
	defer sdlWindow.Destroy()

	// The window decides which surface extensions the instance needs, so
	// it has to exist before the instance does.
	configuration.Instance.Extensions = sdlWindow.VulkanGetInstanceExtensions()
	if len(configuration.Instance.Extensions) == 0 {
		log.Fatal(errors.Wrap(core.ErrExtensionQuery, "sdl reported no surface extensions"))
	}

	vi, err := core.NewVulkanInstance(core.DefaultApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), configuration.Instance)
	if err != nil {
		log.Fatal(err)
	}
	vkInstance = vi

	if srf, err := sdlWindow.VulkanCreateSurface(vkInstance.Handle()); err != nil {
		log.Fatal(errors.Wrap(core.ErrSurfaceCreation, err.Error()))
	} else {
		sdlSurface = srf
		vkInstance.SetSurface(sdlSurface)
	}

	vkRenderer, err = core.NewVulkanRenderer(vkInstance, configuration.Renderer)
	if err != nil {
		log.Fatal(err)
	}
	if err := vkRenderer.Initialise(); err != nil {
		log.Fatal(err)
	}

	clock := core.NewTime(configuration.Time)
	exitC := make(chan struct{}, 2)
	rendering := true

EventLoop:
	for {
		select {
		case <-exitC:
			log.Info("event loop exited")
			break EventLoop
		case <-clock.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						exitC <- struct{}{}
						continue EventLoop
					}
				case *sdl.WindowEvent:
					switch et.Event {
					case sdl.WINDOWEVENT_MINIMIZED:
						rendering = false
					case sdl.WINDOWEVENT_RESTORED:
						rendering = true
					}
				case *sdl.QuitEvent:
					exitC <- struct{}{}
					continue EventLoop
				}
			}
		case <-clock.FpsTicker().C:
			if !rendering {
				time.Sleep(minimizedPollDelay)
				continue
			}
			if err := vkRenderer.Draw(); err != nil {
				log.WithError(err).Error("frame draw failed")
				exitC <- struct{}{}
			}
		}
	}

	vkRenderer.Destroy()
	vkInstance.Destroy()
}
