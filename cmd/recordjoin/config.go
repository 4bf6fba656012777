package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/recordjoin/configs"
	"github.com/weisyn/recordjoin/internal/config"
)

var configInitForce bool

// configCmd 配置文件管理
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置文件管理",
}

// configInitCmd 写出默认配置模板
var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "写出默认配置模板",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s 已存在（使用 --force 覆盖）", path)
		}
		if err := os.WriteFile(path, configs.DefaultConfig(), 0o644); err != nil {
			return fmt.Errorf("写入配置文件失败: %w", err)
		}
		pterm.Success.Printfln("已写出默认配置: %s", path)
		return nil
	},
}

// configShowCmd 显示生效配置（配置文件 + 默认值）
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示生效配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, err := config.LoadAppConfig(globalFlags.ConfigFile)
		if err != nil {
			return err
		}
		provider := config.NewProvider(appConfig)
		nodeURL := provider.GetNode().URL
		if globalFlags.NodeURL != "" {
			nodeURL = globalFlags.NodeURL
		}

		if globalFlags.Output == "json" {
			return printResult(map[string]interface{}{
				"log":      provider.GetLog(),
				"prover":   provider.GetProver(),
				"node":     provider.GetNode(),
				"keystore": provider.GetKeyStore(),
				"txstore":  provider.GetTxStore(),
			}, "")
		}
		return renderTable([][]string{
			{"log.level", provider.GetLog().Level},
			{"log.file_path", provider.GetLog().FilePath},
			{"prover.merkle_depth", strconv.Itoa(provider.GetProver().MerkleDepth)},
			{"prover.verify_on_prove", strconv.FormatBool(provider.GetProver().VerifyOnProve)},
			{"node.url", nodeURL},
			{"node.timeout", provider.GetNode().Timeout.String()},
			{"keystore.path", provider.GetKeyStore().Path},
			{"txstore.backend", provider.GetTxStore().Backend},
		})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "覆盖已存在的文件")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
