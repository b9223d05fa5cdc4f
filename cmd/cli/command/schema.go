package command

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"navpanel/internal/panel"
	"navpanel/internal/param"
	"navpanel/internal/protocol"
	"navpanel/internal/schema"
)

// schemaCmd groups control schema helpers
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect control schemas",
}

// schemaCheckCmd validates a schema and shows what the panel would announce
var schemaCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a control schema",
	Long: `Parse and validate a control schema (JSON with // and /* */ comments),
then list its controls in panel order and the lines the panel sends on startup.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.SchemaPath
		if len(args) == 1 {
			path = args[0]
		}

		sch, err := schema.Load(path)
		if err != nil {
			color.Red("✗ %v", err)
			return fmt.Errorf("schema check failed")
		}

		out := cmd.OutOrStdout()
		color.Green("✓ %s is valid", path)
		fmt.Fprintf(out, "\n%d buttons, %d checkboxes, %d sliders\n",
			len(sch.Buttons), len(sch.Checkboxes), len(sch.Sliders))
		printControls(out, sch)
		return nil
	},
}

func printControls(out io.Writer, sch *schema.Schema) {
	if sch.Len() == 0 {
		return
	}

	fmt.Fprintln(out, "\nControls:")
	for _, e := range sch.Entries() {
		switch e.Kind {
		case schema.EntryButton:
			fmt.Fprintf(out, "  button    %-20s -> %s\n", e.Button.Label, e.Button.Code)
		case schema.EntryCheckbox:
			fmt.Fprintf(out, "  checkbox  %-20s %s (default %t)\n", e.Checkbox.Label, e.Checkbox.Variable, e.Checkbox.DefaultValue)
		case schema.EntrySlider:
			sl := e.Slider
			fmt.Fprintf(out, "  slider    %-20s %s..%s (default %s)\n", sl.Variable,
				protocol.FormatNumber(sl.DefaultMin),
				protocol.FormatNumber(sl.DefaultMax),
				protocol.FormatNumber(sl.DefaultValue))
		}
	}

	fmt.Fprintln(out, "\nStartup messages:")
	p := panel.Build(sch, param.ObserverFunc(func(c param.Change) {
		fmt.Fprintf(out, "  %s\n", c.Line())
	}))
	p.Close()
}

func init() {
	schemaCmd.AddCommand(schemaCheckCmd)
	rootCmd.AddCommand(schemaCmd)
}
