package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/recordjoin/internal/app"
	"github.com/weisyn/recordjoin/pkg/types"
)

var txFile string

// txCmd 交易相关命令
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "查看与校验已组装的交易",
	Long:  "从交易存储（按 ID）或交易文件读取 join 产出的交易",
}

// txShowCmd 显示交易
var txShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "显示交易摘要",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		tx, err := loadTransaction(a, args)
		if err != nil {
			return err
		}
		if globalFlags.Output == "json" {
			return printResult(tx, "")
		}
		return renderTransaction(tx)
	},
}

// txVerifyCmd 校验交易
var txVerifyCmd = &cobra.Command{
	Use:   "verify [id]",
	Short: "离线校验交易的签名、证明与包含性路径",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		tx, err := loadTransaction(a, args)
		if err != nil {
			return err
		}
		spinner, _ := pterm.DefaultSpinner.Start("校验交易 " + tx.ID)
		if err := a.Manager.VerifyTransaction(tx); err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("交易有效: " + tx.ID)
		return nil
	},
}

// txListCmd 列出存储中的交易
var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出交易存储中的交易 ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		ids, err := a.Store.List(context.Background())
		if err != nil {
			return err
		}
		if globalFlags.Output == "json" {
			return printResult(ids, "")
		}
		if len(ids) == 0 {
			pterm.Info.Println("交易存储为空")
			return nil
		}
		items := make([]pterm.BulletListItem, len(ids))
		for i, id := range ids {
			items[i] = pterm.BulletListItem{Level: 0, Text: id}
		}
		return pterm.DefaultBulletList.WithItems(items).Render()
	},
}

// loadTransaction 优先读取 --file，否则按 ID 从存储读取
func loadTransaction(a *app.App, args []string) (*types.Transaction, error) {
	if txFile != "" {
		data, err := os.ReadFile(txFile)
		if err != nil {
			return nil, fmt.Errorf("读取交易文件失败: %w", err)
		}
		return types.UnmarshalTransaction(data)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("必须指定交易 ID 或 --file")
	}
	return a.Store.Get(context.Background(), args[0])
}

func init() {
	txShowCmd.Flags().StringVar(&txFile, "file", "", "交易文件")
	txVerifyCmd.Flags().StringVar(&txFile, "file", "", "交易文件")

	txCmd.AddCommand(txShowCmd)
	txCmd.AddCommand(txVerifyCmd)
	txCmd.AddCommand(txListCmd)
}
