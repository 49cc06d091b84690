package main

import (
	"github.com/spf13/cobra"
)

var loyaltyCustomerFlag int64

var loyaltyCmd = &cobra.Command{
	Use:   "loyalty",
	Short: "累計購入額とVIP",
}

// stockctl loyalty sync --customer 7
var loyaltySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "配達済み注文から累計購入額とVIPを集計し直す",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		l, err := a.Loyalty.Sync(cmd.Context(), loyaltyCustomerFlag)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), l)
	},
}

func init() {
	loyaltySyncCmd.Flags().Int64VarP(&loyaltyCustomerFlag, "customer", "c", 0, "顧客ID")
	_ = loyaltySyncCmd.MarkFlagRequired("customer")
	loyaltyCmd.AddCommand(loyaltySyncCmd)
}
