package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tesoreria/internal/store"
)

// NewInitCommand creates the database, applying the schema and any
// pending migrations. Running it against an existing database is safe.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store.Open(opts.Config.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer s.Close()

			opts.Log.Info("database ready", zap.String("path", opts.Config.DBPath))
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("database ready at %s", opts.Config.DBPath))
		},
	}
}
