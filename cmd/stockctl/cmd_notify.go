package main

import (
	"github.com/spf13/cobra"
)

var (
	notifyProductFlag int64
	notifyVariantFlag string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "通知の再送",
}

// stockctl notify restock --product 12 --variant gold/s
var notifyRestockCmd = &cobra.Command{
	Use:   "restock",
	Short: "在庫がMOQ以上なら再入荷通知をPENDINGの全員に送る",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.BackInStock.NotifyRestock(cmd.Context(), notifyProductFlag, notifyVariantFlag)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	notifyRestockCmd.Flags().Int64VarP(&notifyProductFlag, "product", "p", 0, "商品ID")
	notifyRestockCmd.Flags().StringVarP(&notifyVariantFlag, "variant", "v", "", "バリアントキー（省略時standard）")
	_ = notifyRestockCmd.MarkFlagRequired("product")
	notifyCmd.AddCommand(notifyRestockCmd)
}
