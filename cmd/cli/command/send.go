package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"navpanel/internal/protocol"
	"navpanel/internal/schema"
)

// setCmd sends one assignment without opening the panel
var setCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Set one variable on the visualizer",
	Long: `Send "name = value" once. The value is a number or true/false. When the
control schema knows the variable, the value must match its kind.`,
	Example: `  navpanel set speed 2.5
  navpanel set showPath false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		sch := schema.LoadOrEmpty(cfg.SchemaPath, logger)
		line, err := assignmentLine(sch, args[0], args[1])
		if err != nil {
			return err
		}

		s, err := openSession(logger)
		if err != nil {
			return err
		}
		if err := s.connect(cmd.Context(), newLinePrompter()); err != nil {
			return err
		}
		if err := s.client.SendLine(line); err != nil {
			return fmt.Errorf("✗ send failed: %w", err)
		}
		color.Green("✓ %s", line)
		return nil
	},
}

// execCmd sends a command payload verbatim
var execCmd = &cobra.Command{
	Use:     "exec <code>",
	Short:   "Send a command line to the visualizer verbatim",
	Example: `  navpanel exec "reset_robot()"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		code := strings.Join(args, " ")
		if strings.ContainsAny(code, "\r\n") {
			return fmt.Errorf("code must be a single line")
		}

		s, err := openSession(logger)
		if err != nil {
			return err
		}
		if err := s.connect(cmd.Context(), newLinePrompter()); err != nil {
			return err
		}
		if err := s.client.SendCode(code); err != nil {
			return fmt.Errorf("✗ send failed: %w", err)
		}
		color.Green("✓ %s", code)
		return nil
	},
}

// assignmentLine renders name/literal as a wire line, checking it against the schema
// when the schema declares name.
func assignmentLine(sch *schema.Schema, name, literal string) (string, error) {
	if !protocol.IsIdentifier(name) {
		return "", fmt.Errorf("%q is not a valid variable name", name)
	}

	var slider *schema.Slider
	var checkbox *schema.Checkbox
	for _, e := range sch.Entries() {
		switch {
		case e.Kind == schema.EntrySlider && e.Slider.Variable == name:
			slider = e.Slider
		case e.Kind == schema.EntryCheckbox && e.Checkbox.Variable == name:
			checkbox = e.Checkbox
		}
	}

	switch literal {
	case "true", "false":
		if slider != nil {
			return "", fmt.Errorf("%s is a slider and expects a number", name)
		}
		return protocol.AssignBool(name, literal == "true"), nil
	}

	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return "", fmt.Errorf("value %q is neither a number nor true/false", literal)
	}
	if checkbox != nil {
		return "", fmt.Errorf("%s is a toggle and expects true or false", name)
	}
	if slider != nil && (v < slider.DefaultMin || v > slider.DefaultMax) {
		color.Yellow("⚠ %s is outside the default range %s..%s of %s",
			protocol.FormatNumber(v),
			protocol.FormatNumber(slider.DefaultMin),
			protocol.FormatNumber(slider.DefaultMax),
			name)
	}
	return protocol.Assign(name, v), nil
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(execCmd)
}
