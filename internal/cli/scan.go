package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tesoreria/internal/alert"
	"tesoreria/internal/store"
)

// NewScanCommand evaluates the alert rules once and reports what fired.
func NewScanCommand(opts *RootOptions) *cobra.Command {
	var rulesDir string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Evaluate alert rules against the current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rulesDir
			if dir == "" {
				dir = opts.Config.RulesDir
			}
			if dir == "" {
				return fmt.Errorf("no rules directory: set rules_dir in the config or pass --rules")
			}

			rules, errs := alert.LoadRules(dir)
			if len(errs) > 0 {
				for _, e := range errs {
					opts.Log.Error("rule error", zap.Error(e))
				}
				return fmt.Errorf("%d invalid alert rules in %s", len(errs), dir)
			}

			s, err := store.Open(opts.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			fired, err := alert.NewScanner(s, rules, opts.Log).Scan(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(map[string]any{"rules": len(rules), "fired": fired})
			}
			return out.Success(fmt.Sprintf("%d rules evaluated, %d alerts fired", len(rules), fired))
		},
	}
	cmd.Flags().StringVar(&rulesDir, "rules", "", "directory of CUE rule files (overrides config)")
	return cmd
}
