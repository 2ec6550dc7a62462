//go:build ignore

// Validate-config checks a device configuration JSON file without
// touching the node's store. Useful for vetting a record before copying
// it onto a fleet:
//
//	go run tools/validate-config.go device_config.json
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/identity"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate-config <config-json-file>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	var cfg configstore.DeviceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing JSON: %v\n", err)
		os.Exit(1)
	}

	// Use a placeholder identity; only the topic-prefix default needs it
	id, err := identity.FromString("000000000000")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	notes := configstore.Normalize(&cfg, id)
	for _, note := range notes {
		fmt.Printf("note: %s\n", note)
	}

	warnings, criticalErrors := configstore.SeparateWarningsAndErrors(configstore.ValidateConfig(&cfg))
	for _, w := range warnings {
		fmt.Printf("%s\n", w)
	}

	if len(criticalErrors) > 0 {
		fmt.Println(configstore.FormatValidationErrors(criticalErrors))
		os.Exit(1)
	}

	fmt.Println("Configuration valid")
	fmt.Println(cfg.String())
}
