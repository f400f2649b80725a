// Command lumencli prints the Vulkan physical device inventory as JSON.
// It runs surfaceless through the system loader, so it works on headless
// machines.
package main

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/lumen3d/lumen/core"
)

func main() {
	cfg := core.InstanceConfiguration{
		DebugMode:  false,
		Extensions: []string{},
		Layers:     []string{},
	}

	coreInstance, err := core.NewVulkanInstance(core.DefaultApplicationInfo, nil, cfg)
	if err != nil {
		log.Fatal(err)
	}

	if bytes, err := json.Marshal(coreInstance.PhysicalDevicesInfo()); err == nil {
		fmt.Printf("%s", bytes)
	} else {
		log.Fatal(err)
	}

	coreInstance.Destroy()
}
