package command

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"navpanel/cmd/cli/command/ui"
	"navpanel/internal/panel"
	"navpanel/internal/protocol"
	"navpanel/internal/schema"
	"navpanel/internal/transport"
)

var (
	panelSetFlags  []string // name=value applied after the initial announcements
	panelFireFlags []string // button labels fired after the initial announcements
)

// panelCmd represents the interactive control panel
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive control panel",
	Long: `Connect to the visualizer and show one control per schema entry.
If the visualizer cannot be reached you are asked for another host; giving up leaves
the panel open but offline (press c to connect later).`,
	Example: `  navpanel panel
  navpanel panel --set speed=2.5 --set showPath=false --fire "Reset robot"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// the terminal belongs to the UI, so logs only go to LOG_FILE or the journal
		logger, err := newLogger(nil)
		if err != nil {
			return err
		}

		s, err := openSession(logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		prompter := transport.Prompter(ui.Prompter{})
		if noPromptFlag {
			prompter = newLinePrompter()
		}
		if err := s.connect(ctx, prompter); err != nil {
			if !errors.Is(err, transport.ErrAbandoned) {
				return err
			}
			logger.Warn("panel_offline", "reason", err.Error())
		}

		p := s.startPanel(schema.LoadOrEmpty(cfg.SchemaPath, logger))
		if err := applyStartup(p, panelSetFlags, panelFireFlags); err != nil {
			return err
		}

		program := tea.NewProgram(ui.NewModel("navpanel", p, s), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			atexit.Fatalf("panel: %v", err)
		}
		return nil
	},
}

// applyStartup edits controls as if the user had, so the changes are sent like any
// other edit: assignments first, then button presses, in flag order.
func applyStartup(p *panel.Panel, sets, fires []string) error {
	for _, set := range sets {
		a, err := protocol.ParseAssignment(set)
		if err != nil {
			return fmt.Errorf("--set %q: expected name=value", set)
		}
		if err := p.Assign(a.Name, a.Literal); err != nil {
			return fmt.Errorf("--set %q: %w", set, err)
		}
	}
	for _, label := range fires {
		c, ok := p.Command(label)
		if !ok {
			return fmt.Errorf("--fire %q: no such button", label)
		}
		c.Fire()
	}
	return nil
}

func init() {
	panelCmd.Flags().StringArrayVar(&panelSetFlags, "set", nil, "set a schema variable on startup (name=value, repeatable)")
	panelCmd.Flags().StringArrayVar(&panelFireFlags, "fire", nil, "press a button on startup by label (repeatable)")
	rootCmd.AddCommand(panelCmd)
}
