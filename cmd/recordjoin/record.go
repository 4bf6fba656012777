package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/recordjoin/internal/core/amount"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

var (
	recordKeyFlags KeyFlags
	recordCredits  string
	recordNonce    string
	recordRegister bool
)

// recordCmd 记录工具
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "创建与查看记录",
}

// recordNewCmd 创建记录
var recordNewCmd = &cobra.Command{
	Use:   "new",
	Short: "为签名私钥的地址创建一条记录",
	Long: `创建一条属于签名私钥地址的记录。指定 --register 时把承诺登记到节点，
仅用于本地开发节点。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadSigningKey(&recordKeyFlags)
		if err != nil {
			return err
		}
		amt, err := amount.NewAmountFromString(recordCredits)
		if err != nil {
			return err
		}

		var nonce field.Element
		if recordNonce != "" {
			if nonce, err = field.FromHex(recordNonce); err != nil {
				return fmt.Errorf("无效的 nonce: %w", err)
			}
		} else {
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			nonce = field.FromBytes(buf)
		}
		rec := types.NewRecord(key.Address(), amt.Units(), nonce)

		if recordRegister {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Stop()

			cm, err := rec.Commitment()
			if err != nil {
				return err
			}
			node := a.Provider.GetNode()
			client := ledger.NewRESTClient(node.URL, node.Timeout, a.Logger)
			root, err := client.RegisterCommitments(context.Background(), []string{field.Hex(cm)})
			if err != nil {
				return err
			}
			if globalFlags.Output != "json" {
				pterm.Success.Printfln("已登记到 %s，状态根=%s", client.BaseURL(), root.StateRoot)
			}
		}
		if globalFlags.Output == "json" {
			return printResult(rec, "")
		}
		pterm.Println(rec.String())
		return nil
	},
}

// recordInspectCmd 查看记录
var recordInspectCmd = &cobra.Command{
	Use:   "inspect <record>",
	Short: "显示记录的金额、承诺；提供私钥时显示序列号",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		cm, err := rec.Commitment()
		if err != nil {
			return err
		}
		out := map[string]string{
			"owner":        rec.Owner.String(),
			"credits":      amount.NewAmountFromUnits(rec.Microcredits).String(),
			"microcredits": strconv.FormatUint(rec.Microcredits, 10),
			"nonce":        rec.Nonce,
			"commitment":   field.Hex(cm),
		}
		rows := [][]string{
			{"所有者", out["owner"]},
			{"金额", out["credits"] + " credits"},
			{"nonce", out["nonce"]},
			{"承诺", out["commitment"]},
		}

		if recordKeyFlags.PrivateKey != "" || recordKeyFlags.Mnemonic != "" {
			key, err := loadSigningKey(&recordKeyFlags)
			if err != nil {
				return err
			}
			owned := key.Address() == rec.Owner
			out["owned"] = strconv.FormatBool(owned)
			rows = append(rows, []string{"属于该私钥", out["owned"]})
			if owned {
				sn, err := rec.SerialNumber(key.SecretField())
				if err != nil {
					return err
				}
				out["serial_number"] = field.Hex(sn)
				rows = append(rows, []string{"序列号", out["serial_number"]})
			}
		}
		if globalFlags.Output == "json" {
			return printResult(out, "")
		}
		return renderTable(rows)
	},
}

func init() {
	bindKeyFlags(recordNewCmd, &recordKeyFlags)
	recordNewCmd.Flags().StringVar(&recordCredits, "credits", "1", "记录金额 (credits，最多 6 位小数)")
	recordNewCmd.Flags().StringVar(&recordNonce, "nonce", "", "nonce (hex，默认随机)")
	recordNewCmd.Flags().BoolVar(&recordRegister, "register", false, "把记录承诺登记到节点")

	bindKeyFlags(recordInspectCmd, &recordKeyFlags)

	recordCmd.AddCommand(recordNewCmd)
	recordCmd.AddCommand(recordInspectCmd)
}
