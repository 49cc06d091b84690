package main

import (
	"fmt"

	"stockengine/internal/config"
	"stockengine/internal/infra/db"

	"github.com/spf13/cobra"
)

// stockctl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "テーブルを作成・更新する",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadForCLI(); err != nil {
			return err
		}
		gdb, err := db.Connect()
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrated")
		return nil
	},
}
