package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePersistent(cfg, "migrate"); err != nil {
			return err
		}
		// openStores applies the schema on connect.
		st, err := openStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		st.close()

		_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return err
	},
}
