package command

// root.go defines the root command for navpanel and the configuration shared by
// every subcommand.

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"navpanel/internal/config"
	"navpanel/internal/logging"
)

var (
	cfg *config.Config // loaded in PersistentPreRunE

	hostFlag     string // first host to try
	portFlag     int    // visualizer port
	schemaFlag   string // control schema path
	rememberFlag bool   // store a prompt-accepted host
	noPromptFlag bool   // give up instead of asking for another host
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "navpanel",
	Short: "navpanel - runtime control panel for the navigation visualizer",
	Long: `navpanel tunes parameters of a running navigation visualizer by sending
"name = value" lines over TCP (port 31336). Controls come from a JSON control schema
with sliders, toggles and command buttons.

Use "navpanel panel" for the interactive panel, or "navpanel set" and "navpanel exec"
for one-off changes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("host") {
			loaded.VisualizerHost = hostFlag
		}
		if flags.Changed("port") {
			loaded.VisualizerPort = portFlag
		}
		if flags.Changed("schema") {
			loaded.SchemaPath = schemaFlag
		}
		if flags.Changed("remember") {
			loaded.RememberHost = rememberFlag
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Exit hooks run on both paths.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "localhost", "visualizer host to try first")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 31336, "visualizer port")
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schema", "sliders.json", "control schema file")
	rootCmd.PersistentFlags().BoolVar(&rememberFlag, "remember", false, "remember a host entered at the prompt")
	rootCmd.PersistentFlags().BoolVar(&noPromptFlag, "no-prompt", false, "fail instead of prompting for another host")
}

// newLogger builds the logger for a command. console may be nil when the terminal is
// owned by the UI; LOG_FILE still applies.
func newLogger(console io.Writer) (*slog.Logger, error) {
	l, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Console: console,
		File:    cfg.LogFile,
		Journal: cfg.LogJournal,
	})
	if err != nil {
		return nil, err
	}
	atexit.Register(func() { l.Close() })
	slog.SetDefault(l.Logger)
	return l.Logger, nil
}
