package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/setup"
	"github.com/sensdot/sensdot/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the node from the terminal",
	Long: `Runs the interactive provisioning wizard. The committed record is
the same one the web portal writes; an existing configuration pre-fills
the form for editing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, id, err := openStore()
		if err != nil {
			return err
		}

		current, err := store.Load()
		if err != nil && !errors.Is(err, configstore.ErrAbsent) {
			return err
		}

		if err := setup.Run(id, store, current); err != nil {
			return err
		}

		fmt.Println(tui.RenderSuccess("Configuration saved", [][2]string{
			{"Path", store.Path()},
			{"Device", id.DeviceID},
		}))
		fmt.Println(tui.MutedStyle.Render("The node will use it on its next wake."))
		return nil
	},
}
