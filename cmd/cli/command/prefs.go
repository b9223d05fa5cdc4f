package command

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"navpanel/internal/prefs"
)

// prefsCmd groups the stored preference commands
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change stored preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored visualizer host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Application: %s\n", cfg.AppID)
		fmt.Fprintf(out, "Backend:     %s\n", cfg.PrefsBackend)
		if fs, ok := store.(*prefs.FileStore); ok {
			fmt.Fprintf(out, "File:        %s\n", fs.Path())
		}

		p, err := store.Load(cmd.Context())
		switch {
		case errors.Is(err, prefs.ErrNotFound):
			fmt.Fprintf(out, "Server host: %s %s\n", prefs.DefaultHost, color.HiBlackString("(default)"))
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "Server host: %s\n", p.ServerHost)
		}
		return nil
	},
}

var prefsSetHostCmd = &cobra.Command{
	Use:   "set-host <host>",
	Short: "Store the host suggested when the visualizer cannot be reached",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		if err := prefs.RememberHost(cmd.Context(), store, args[0]); err != nil {
			return fmt.Errorf("✗ failed to save host: %w", err)
		}
		color.Green("✓ Server host set to %s", args[0])
		return nil
	},
}

func openStore() (prefs.Store, error) {
	store, err := prefs.Open(cfg.PrefsBackend, cfg.AppID, cfg.PrefsPath)
	if err != nil {
		return nil, err
	}
	atexit.Register(func() { store.Close() })
	return store, nil
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetHostCmd)
	rootCmd.AddCommand(prefsCmd)
}
