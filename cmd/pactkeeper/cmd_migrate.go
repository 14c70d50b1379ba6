package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	migrateFrom string
	migrateTo   string
)

// migrateUserCmd reassigns every row of one user id to another, e.g. after an
// anonymous account signs in.
var migrateUserCmd = &cobra.Command{
	Use:   "migrate-user",
	Short: "Move all data of one user id to another",
	Long: `Reassigns contracts, logs, violations, journal entries, temptations,
briefings and the push token from --from to --to. Rows that cannot move are
listed in the report; the rest are still moved.`,
	Example: `  pactkeeper migrate-user --from anon-4f2a --to user-81`,
	RunE:    runMigrateUser,
}

func init() {
	migrateUserCmd.Flags().StringVar(&migrateFrom, "from", "", "Source user id (required)")
	migrateUserCmd.Flags().StringVar(&migrateTo, "to", "", "Target user id (required)")
	_ = migrateUserCmd.MarkFlagRequired("from")
	_ = migrateUserCmd.MarkFlagRequired("to")
}

func runMigrateUser(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return migrateUser(cmd, a, migrateFrom, migrateTo)
}

func migrateUser(cmd *cobra.Command, a *app, from, to string) error {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return fmt.Errorf("%w: --from and --to must not be empty", errUsage)
	}

	rep, err := a.migration.MigrateUser(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return rep.Err()
}
