package main

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/window"
)

func main() {
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stderr)

	drv, err := driver.NewVulkan(nil)
	if err != nil {
		log.Fatal(err)
	}

	instance, err := device.CreateInstance(drv, &window.Headless{}, device.InstanceConfiguration{
		ApplicationName: "vkinfo",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Release()

	devices, err := device.DescribeAll(drv, instance.Handle())
	if err != nil {
		log.Error(err)
		return
	}

	bytes, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		log.Error(err)
		return
	}
	fmt.Printf("%s\n", bytes)
}
