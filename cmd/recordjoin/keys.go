package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/types"
)

var (
	keysOutDir      string
	keysProverURL   string
	keysVerifierURL string
)

// keysCmd 函数密钥管理
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "函数证明/验证密钥管理",
	Long: `管理 credits 程序函数（join、fee）的 Groth16 密钥。

配置 keystore.path 后密钥持久化在本地 badger 数据目录中，
后续 join 调用直接复用，不再重新合成。`,
}

// keysSynthesizeCmd 预合成密钥
var keysSynthesizeCmd = &cobra.Command{
	Use:   "synthesize <function>",
	Short: "为函数合成密钥并写入缓存",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		spinner, _ := pterm.DefaultSpinner.Start("合成密钥: " + args[0])
		kp, err := a.Manager.SynthesizeKeys(process.CreditsProgram, args[0])
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("密钥已合成: " + args[0])
		return reportKeys(args[0], kp)
	},
}

// keysExportCmd 导出缓存中的密钥
var keysExportCmd = &cobra.Command{
	Use:   "export <function>",
	Short: "把缓存中的密钥写入文件",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if keysOutDir == "" {
			return fmt.Errorf("必须指定 --out-dir")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		kp, ok := a.Manager.Keys().Get(process.CreditsProgram, args[0])
		if !ok {
			return fmt.Errorf("缓存中没有 %s/%s 的密钥，请先运行 keys synthesize", process.CreditsProgram, args[0])
		}
		return reportKeys(args[0], kp)
	},
}

// keysFetchCmd 下载发布的密钥
var keysFetchCmd = &cobra.Command{
	Use:   "fetch <function>",
	Short: "下载预先合成的密钥并写入缓存",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if keysProverURL == "" || keysVerifierURL == "" {
			return fmt.Errorf("必须指定 --prover-url 与 --verifier-url")
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		kp, err := a.Manager.FetchFunctionKeys(context.Background(), keysProverURL, keysVerifierURL)
		if err != nil {
			return err
		}
		if err := a.Manager.CacheKeypair(process.CreditsProgram, args[0], kp.ProvingKey, kp.VerifyingKey); err != nil {
			return err
		}
		return reportKeys(args[0], kp)
	},
}

// keysListCmd 列出缓存的密钥
var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出内存缓存中的密钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		rows := [][]string{}
		for _, fn := range []string{process.FunctionJoin, process.FunctionFee} {
			state := "无"
			if a.Manager.KeyExists(process.CreditsProgram, fn) {
				state = "已缓存"
			}
			rows = append(rows, []string{process.CreditsProgram + "/" + fn, state})
		}
		return renderTable(rows)
	},
}

// keysClearCmd 清空密钥缓存
var keysClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "清空内存与持久化密钥",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		a.Manager.ClearKeyCache()
		pterm.Success.Println("密钥缓存已清空")
		return nil
	},
}

// reportKeys 打印验证密钥哈希，指定 --out-dir 时同时写出密钥文件
func reportKeys(function string, kp *types.KeyPair) error {
	hash, err := kp.VerifyingKeyHash()
	if err != nil {
		return err
	}
	rows := [][]string{
		{"函数", process.CreditsProgram + "/" + function},
		{"验证密钥哈希", hash},
	}
	if keysOutDir != "" {
		pk, vk, err := types.MarshalKeyPair(kp)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(keysOutDir, 0o755); err != nil {
			return err
		}
		pkPath := filepath.Join(keysOutDir, function+".prover")
		vkPath := filepath.Join(keysOutDir, function+".verifier")
		if err := os.WriteFile(pkPath, pk, 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(vkPath, vk, 0o644); err != nil {
			return err
		}
		rows = append(rows, []string{"证明密钥文件", pkPath}, []string{"验证密钥文件", vkPath})
	}
	if globalFlags.Output == "json" {
		out := make(map[string]string, len(rows))
		for _, r := range rows {
			out[r[0]] = r[1]
		}
		return printResult(out, "")
	}
	return renderTable(rows)
}

func init() {
	keysSynthesizeCmd.Flags().StringVar(&keysOutDir, "out-dir", "", "同时把密钥写入该目录")
	keysExportCmd.Flags().StringVar(&keysOutDir, "out-dir", "", "密钥输出目录")
	keysFetchCmd.Flags().StringVar(&keysOutDir, "out-dir", "", "同时把密钥写入该目录")
	keysFetchCmd.Flags().StringVar(&keysProverURL, "prover-url", "", "证明密钥下载地址")
	keysFetchCmd.Flags().StringVar(&keysVerifierURL, "verifier-url", "", "验证密钥下载地址")

	keysCmd.AddCommand(keysSynthesizeCmd)
	keysCmd.AddCommand(keysExportCmd)
	keysCmd.AddCommand(keysFetchCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysClearCmd)
}
