package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var auditProductFlag int64

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "在庫ログの点検",
}

// stockctl audit verify --product 12
var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "初期在庫＋在庫ログの合計が現在庫と一致するか確かめる",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		reports, err := a.Inventory.VerifyConservation(cmd.Context(), auditProductFlag)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
		for _, r := range reports {
			if !r.OK {
				return fmt.Errorf("mismatch: product %d variant %s", r.ProductID, r.VariantKey)
			}
		}
		return nil
	},
}

func init() {
	auditVerifyCmd.Flags().Int64VarP(&auditProductFlag, "product", "p", 0, "商品ID")
	_ = auditVerifyCmd.MarkFlagRequired("product")
	auditCmd.AddCommand(auditVerifyCmd)
}
