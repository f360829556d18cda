package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/compliance"
	"scribe/internal/config"
	"scribe/internal/structure"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "check <markdown-file>",
		Short: "Validate a markdown document against the structure template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tmpl, err := structure.FromConfig(cfg.Structure)
			if err != nil {
				return err
			}
			if tmpl.IsEmpty() {
				return fmt.Errorf("no structure template configured; add [[structure.sections]] entries to %s", configPathHint())
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			result := compliance.Validate(compliance.Parse(string(raw)), tmpl)
			if jsonOut {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printComplianceResult(cmd, result)
			}

			if !result.IsCompliant {
				return fmt.Errorf("document does not meet the structure template (score %d)", result.Score)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit machine-readable output")
	return cmd
}

func printComplianceResult(cmd *cobra.Command, result compliance.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	verdict := "compliant"
	if !result.IsCompliant {
		verdict = "not compliant"
	}
	fmt.Fprintf(out, "Structure check: %s (score %d)\n", verdict, result.Score)

	if len(result.Violations) > 0 {
		rows := make([][]string, 0, len(result.Violations))
		for _, v := range result.Violations {
			severity := string(v.Severity)
			if colorize {
				switch v.Severity {
				case compliance.SeverityCritical, compliance.SeverityHigh:
					severity = ansiRed + severity + ansiReset
				case compliance.SeverityMedium:
					severity = ansiYellow + severity + ansiReset
				}
			}
			rows = append(rows, []string{
				v.SectionID,
				string(v.Kind),
				severity,
				v.Description,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Section", "Kind", "Severity", "Detail"}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
	}

	for i, rec := range result.Recommendations {
		fmt.Fprintf(out, "%s. %s\n", strconv.Itoa(i+1), rec)
	}
}

func configPathHint() string {
	if path, err := config.DefaultConfigPath(); err == nil {
		return path
	}
	return "the scribe config file"
}
