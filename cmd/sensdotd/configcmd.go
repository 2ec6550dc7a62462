package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/profile"
	"github.com/sensdot/sensdot/internal/tui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or reset the device configuration",
}

var configForce bool

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configResetCmd)

	configResetCmd.Flags().BoolVar(&configForce, "force", false,
		"skip the confirmation prompt")
}

// openStore resolves the profile and builds the store the agent uses
func openStore() (*configstore.Store, identity.Identity, error) {
	prof, err := profile.Load(profilePath)
	if err != nil {
		return nil, identity.Identity{}, err
	}
	if err := logging.Initialize(logLevel); err != nil {
		return nil, identity.Identity{}, err
	}

	id, err := identity.Derive()
	if err != nil {
		return nil, identity.Identity{}, fmt.Errorf("failed to derive device identity: %w", err)
	}

	return configstore.NewStore(prof.Paths.Config, id), id, nil
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		cfg, err := store.Load()
		if err != nil {
			if errors.Is(err, configstore.ErrAbsent) {
				fmt.Println(tui.MutedStyle.Render(
					"No configuration stored. The node will host its setup portal on the next wake."))
				return nil
			}
			return err
		}

		fmt.Println(cfg.String())
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the stored configuration for problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		cfg, err := store.Load()
		if err != nil {
			return err
		}

		warnings, criticalErrors := configstore.SeparateWarningsAndErrors(configstore.ValidateConfig(cfg))
		if len(criticalErrors) > 0 {
			fmt.Println(tui.RenderError("Configuration invalid",
				errors.New(configstore.FormatValidationErrors(criticalErrors)), nil))
			return fmt.Errorf("%d validation error(s)", len(criticalErrors))
		}

		fmt.Println(tui.RenderSuccess("Configuration valid", [][2]string{
			{"WiFi SSID", cfg.WiFi.SSID},
			{"Broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker, cfg.MQTT.Port)},
			{"Topic prefix", cfg.MQTT.TopicPrefix},
			{"Sleep interval", fmt.Sprintf("%ds", cfg.SleepIntervalS)},
		}))
		if msgs := warningStrings(warnings); len(msgs) > 0 {
			fmt.Println(tui.RenderWarnings(msgs))
		}
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored configuration (factory reset)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		if !configForce && !tui.FactoryResetConfirmation(store.Path()) {
			return fmt.Errorf("reset cancelled")
		}

		if err := store.Reset(); err != nil {
			return err
		}

		fmt.Println(tui.RenderSuccess("Configuration wiped", [][2]string{
			{"Path", store.Path()},
		}))
		return nil
	},
}

func warningStrings(warnings []error) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Error()
	}
	return out
}
