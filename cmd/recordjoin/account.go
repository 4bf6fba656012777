package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"github.com/weisyn/recordjoin/pkg/types"
)

var (
	accountKeyFlags KeyFlags
	accountWords    int
)

// accountCmd 账户相关命令
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "签名私钥与地址",
}

// accountNewCmd 生成助记词与私钥
var accountNewCmd = &cobra.Command{
	Use:   "new",
	Short: "生成新的助记词、签名私钥与地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		bits := accountWords / 3 * 32
		entropy, err := bip39.NewEntropy(bits)
		if err != nil {
			return fmt.Errorf("生成熵失败 (--words 只支持 12/15/18/21/24): %w", err)
		}
		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return fmt.Errorf("生成助记词失败: %w", err)
		}
		key, err := loadSigningKey(&KeyFlags{Mnemonic: mnemonic})
		if err != nil {
			return err
		}
		if globalFlags.Output == "json" {
			return printResult(map[string]string{
				"mnemonic":    mnemonic,
				"private_key": key.Hex(),
				"address":     key.Address().String(),
				"public_key":  key.PublicKeyHex(),
			}, "")
		}
		pterm.Warning.Println("请妥善保存助记词，丢失后无法恢复")
		return renderAccount(key, mnemonic)
	},
}

// accountShowCmd 显示私钥对应的地址
var accountShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示签名私钥对应的地址与公钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadSigningKey(&accountKeyFlags)
		if err != nil {
			return err
		}
		if globalFlags.Output == "json" {
			return printResult(map[string]string{
				"address":    key.Address().String(),
				"public_key": key.PublicKeyHex(),
			}, "")
		}
		return renderAccount(key, "")
	},
}

func renderAccount(key *types.PrivateKey, mnemonic string) error {
	rows := [][]string{}
	if mnemonic != "" {
		rows = append(rows, []string{"助记词", mnemonic}, []string{"私钥", key.Hex()})
	}
	rows = append(rows,
		[]string{"地址", key.Address().String()},
		[]string{"公钥", key.PublicKeyHex()},
	)
	return renderTable(rows)
}

func init() {
	accountNewCmd.Flags().IntVar(&accountWords, "words", 12, "助记词单词数")
	bindKeyFlags(accountShowCmd, &accountKeyFlags)

	accountCmd.AddCommand(accountNewCmd)
	accountCmd.AddCommand(accountShowCmd)
}
