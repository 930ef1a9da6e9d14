package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tesoreria/internal/report"
	"tesoreria/internal/store"
)

// NewReportCommand prints the treasury position.
func NewReportCommand(opts *RootOptions) *cobra.Command {
	var horizonDays int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the treasury position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if horizonDays == 0 {
				horizonDays = opts.Config.HorizonDays
			}
			if horizonDays < 1 || horizonDays > 3650 {
				return fmt.Errorf("invalid --horizon %d: must be 1..3650", horizonDays)
			}
			s, err := store.Open(opts.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			pos, err := report.Build(cmd.Context(), s, time.Now(), horizonDays)
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(pos)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), report.RenderText(pos))
			return err
		},
	}
	cmd.Flags().IntVar(&horizonDays, "horizon", 0, "obligation horizon in days, default horizon_days from config")
	return cmd
}
