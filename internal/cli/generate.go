package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tesoreria/internal/recur"
	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

// NewGenerateCommand materializes recurring transaction instances up to
// a horizon date.
func NewGenerateCommand(opts *RootOptions) *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Materialize upcoming recurring transaction instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			horizon := time.Now().AddDate(0, 0, opts.Config.HorizonDays)
			if until != "" {
				t, err := treasury.ParseDate(until)
				if err != nil {
					return fmt.Errorf("invalid --until %q: must be YYYY-MM-DD", until)
				}
				horizon = t
			}

			s, err := store.Open(opts.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			created, err := recur.NewGenerator(s, opts.Log).Generate(cmd.Context(), horizon)
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(map[string]any{"created": created, "horizon": treasury.FormatDate(horizon)})
			}
			return out.Success(fmt.Sprintf("%d instances created up to %s", created, treasury.FormatDate(horizon)))
		},
	}
	cmd.Flags().StringVar(&until, "until", "", "horizon date (YYYY-MM-DD), default now + horizon_days")
	return cmd
}
