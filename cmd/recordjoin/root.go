package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/term"

	"github.com/weisyn/recordjoin/internal/app"
	"github.com/weisyn/recordjoin/internal/app/version"
	logiface "github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigFile string // 配置文件路径
	LogLevel   string // 日志级别
	NodeURL    string // 节点地址
	Output     string // 输出格式
}

// KeyFlags 签名私钥来源
type KeyFlags struct {
	PrivateKey string
	Mnemonic   string
	Passphrase string
}

var globalFlags GlobalFlags

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "recordjoin",
	Short: "记录合并与费用附加交易组装工具",
	Long: `recordjoin - 把同一所有者的两条记录合并为一条，附加费用执行并组装签名交易

常用流程:
  recordjoin mocknode                    # 启动本地开发节点
  recordjoin record new --register ...   # 创建并登记记录
  recordjoin join ...                    # 合并记录并组装交易
  recordjoin tx verify --file tx.json    # 离线校验交易`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// versionCmd 版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResult(version.GetBuildInfo(), version.GetBuildInfo().String())
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "配置文件路径 (JSON)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "warn", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.NodeURL, "node", "", "节点地址 (默认取配置文件)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "pretty", "输出格式: pretty|json")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(mocknodeCmd)
}

// newApp 按全局标志启动应用
func newApp() (*app.App, error) {
	level, err := logiface.ParseLevel(globalFlags.LogLevel)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithConfigFile(globalFlags.ConfigFile),
		app.WithLogLevel(string(level)),
		app.WithNodeURL(globalFlags.NodeURL),
	)
}

// bindKeyFlags 注册签名私钥相关标志
func bindKeyFlags(cmd *cobra.Command, flags *KeyFlags) {
	cmd.Flags().StringVar(&flags.PrivateKey, "private-key", "", "签名私钥 (hex)")
	cmd.Flags().StringVar(&flags.Mnemonic, "mnemonic", "", "BIP39 助记词（与 --private-key 二选一）")
	cmd.Flags().StringVar(&flags.Passphrase, "passphrase", "", "助记词密码")
}

// loadSigningKey 从私钥或助记词加载签名私钥
func loadSigningKey(flags *KeyFlags) (*types.PrivateKey, error) {
	switch {
	case flags.PrivateKey != "" && flags.Mnemonic != "":
		return nil, fmt.Errorf("--private-key 与 --mnemonic 只能指定一个")
	case flags.PrivateKey != "":
		return types.PrivateKeyFromHex(flags.PrivateKey)
	case flags.Mnemonic != "":
		mnemonic := strings.Join(strings.Fields(flags.Mnemonic), " ")
		if !bip39.IsMnemonicValid(mnemonic) {
			return nil, fmt.Errorf("无效的助记词")
		}
		return types.PrivateKeyFromSeed(bip39.NewSeed(mnemonic, flags.Passphrase))
	default:
		if env := os.Getenv("RECORDJOIN_PRIVATE_KEY"); env != "" {
			return types.PrivateKeyFromHex(env)
		}
		if term.IsTerminal(int(os.Stdin.Fd())) {
			secret, err := promptSecret("签名私钥 (hex)")
			if err != nil {
				return nil, err
			}
			return types.PrivateKeyFromHex(secret)
		}
		return nil, fmt.Errorf("必须指定 --private-key 或 --mnemonic")
	}
}

// promptSecret 提示输入敏感信息（不回显）
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt+": ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("读取输入失败: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// readRecord 解析记录参数：JSON 文本或 @文件路径
func readRecord(arg string) (*types.Record, error) {
	text, err := readArg(arg)
	if err != nil {
		return nil, err
	}
	return types.ParseRecord(text)
}

// readArg 参数以 @ 开头时读取文件内容
func readArg(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	return string(data), nil
}

// printResult 按输出格式打印结果；pretty 模式下打印 summary
func printResult(v interface{}, summary string) error {
	if globalFlags.Output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	pterm.Println(summary)
	return nil
}

// renderTable 以两列表格打印键值
func renderTable(rows [][]string) error {
	data := pterm.TableData{{"字段", "值"}}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
