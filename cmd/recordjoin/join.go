package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/recordjoin/internal/core/amount"
	eventimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/event"
	"github.com/weisyn/recordjoin/pkg/types"
)

var (
	joinKeyFlags  KeyFlags
	joinRecord1   string
	joinRecord2   string
	joinFee       float64
	joinFeeRecord string
	joinNoCache   bool
	joinOut       string
	joinKeyFiles  struct {
		joinPK, joinVK, feePK, feeVK string
	}
)

// joinCmd 合并两条记录
var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "合并两条记录并附加费用，输出签名交易",
	Long: `合并同一所有者的两条记录为一条新记录，并用费用记录支付手续费。

记录参数可以是 JSON 文本或 @文件路径，例如:
  recordjoin join --private-key <hex> \
    --record1 @a.json --record2 @b.json \
    --fee 1.0 --fee-record @fee.json --out tx.json`,
	RunE: runJoin,
}

func runJoin(cmd *cobra.Command, args []string) error {
	key, err := loadSigningKey(&joinKeyFlags)
	if err != nil {
		return err
	}
	records := make([]*types.Record, 3)
	for i, arg := range []string{joinRecord1, joinRecord2, joinFeeRecord} {
		if arg == "" {
			return fmt.Errorf("必须指定 --record1、--record2 与 --fee-record")
		}
		if records[i], err = readRecord(arg); err != nil {
			return err
		}
	}
	joinKeys, err := loadKeyOption(joinKeyFiles.joinPK, joinKeyFiles.joinVK)
	if err != nil {
		return err
	}
	feeKeys, err := loadKeyOption(joinKeyFiles.feePK, joinKeyFiles.feeVK)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Stop()

	var spinner *pterm.SpinnerPrinter
	onStage := func(ev types.StageEvent) {
		switch ev.Status {
		case types.StageStarted:
			spinner, _ = pterm.DefaultSpinner.Start(ev.Stage)
		case types.StageCompleted:
			if spinner != nil {
				spinner.Success(fmt.Sprintf("%s (%v)", ev.Stage, ev.Elapsed.Round(time.Millisecond)))
			}
		case types.StageFailed:
			if spinner != nil {
				spinner.Fail(fmt.Sprintf("%s: %v", ev.Stage, ev.Err))
			}
		}
	}
	if globalFlags.Output != "json" {
		if err := a.EventBus.Subscribe(eventimpl.EventTypeJoinStage, onStage); err != nil {
			return err
		}
		defer func() { _ = a.EventBus.Unsubscribe(eventimpl.EventTypeJoinStage, onStage) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tx, err := a.Manager.Join(ctx, key, records[0], records[1], joinFee, records[2],
		globalFlags.NodeURL, !joinNoCache, joinKeys, feeKeys)
	if err != nil {
		return err
	}

	if joinOut != "" {
		data, err := types.MarshalTransaction(tx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(joinOut, data, 0o644); err != nil {
			return fmt.Errorf("写入交易文件失败: %w", err)
		}
	}
	if globalFlags.Output == "json" {
		return printResult(tx, "")
	}
	pterm.Success.Printfln("交易已组装: %s", tx.ID)
	return renderTransaction(tx)
}

// loadKeyOption 从文件加载密钥；只给出一半时构成部分提供，由 Join 忽略并重新获取
func loadKeyOption(pkPath, vkPath string) (types.KeyOption, error) {
	var pk groth16.ProvingKey
	var vk groth16.VerifyingKey
	if pkPath != "" {
		data, err := os.ReadFile(pkPath)
		if err != nil {
			return types.NoKeys(), fmt.Errorf("读取证明密钥失败: %w", err)
		}
		if pk, err = types.UnmarshalProvingKey(data); err != nil {
			return types.NoKeys(), err
		}
	}
	if vkPath != "" {
		data, err := os.ReadFile(vkPath)
		if err != nil {
			return types.NoKeys(), fmt.Errorf("读取验证密钥失败: %w", err)
		}
		if vk, err = types.UnmarshalVerifyingKey(data); err != nil {
			return types.NoKeys(), err
		}
	}
	return types.SuppliedKeys(pk, vk), nil
}

// renderTransaction 打印交易摘要
func renderTransaction(tx *types.Transaction) error {
	exec := tx.Execution.Execution
	rows := [][]string{
		{"交易 ID", tx.ID},
		{"签名者", tx.Signer},
		{"状态根", tx.Execution.Inclusion.StateRoot},
		{"区块高度", strconv.FormatUint(tx.Execution.Inclusion.Height, 10)},
		{"执行", exec.ProgramID + "/" + exec.Function + " " + exec.TransitionID},
	}
	for i, in := range exec.Inputs {
		rows = append(rows, []string{fmt.Sprintf("消耗 #%d", i), in.Commitment})
	}
	for i, out := range exec.Outputs {
		rows = append(rows, []string{fmt.Sprintf("输出 #%d", i), amount.NewAmountFromUnits(out.Microcredits).String() + " credits"})
	}
	if tx.Fee != nil {
		rows = append(rows, []string{"费用", amount.NewAmountFromUnits(tx.Fee.Microcredits).String() + " credits"})
		for _, out := range tx.Fee.Resolved.Execution.Outputs {
			rows = append(rows, []string{"费用找零", amount.NewAmountFromUnits(out.Microcredits).String() + " credits"})
		}
	}
	return renderTable(rows)
}

func init() {
	bindKeyFlags(joinCmd, &joinKeyFlags)
	joinCmd.Flags().StringVar(&joinRecord1, "record1", "", "第一条记录 (JSON 或 @文件)")
	joinCmd.Flags().StringVar(&joinRecord2, "record2", "", "第二条记录 (JSON 或 @文件)")
	joinCmd.Flags().Float64Var(&joinFee, "fee", 1.0, "费用 (credits)")
	joinCmd.Flags().StringVar(&joinFeeRecord, "fee-record", "", "费用记录 (JSON 或 @文件)")
	joinCmd.Flags().BoolVar(&joinNoCache, "no-cache", false, "不缓存本次合成的密钥")
	joinCmd.Flags().StringVar(&joinOut, "out", "", "交易输出文件")
	joinCmd.Flags().StringVar(&joinKeyFiles.joinPK, "join-pk", "", "join 证明密钥文件")
	joinCmd.Flags().StringVar(&joinKeyFiles.joinVK, "join-vk", "", "join 验证密钥文件")
	joinCmd.Flags().StringVar(&joinKeyFiles.feePK, "fee-pk", "", "fee 证明密钥文件")
	joinCmd.Flags().StringVar(&joinKeyFiles.feeVK, "fee-vk", "", "fee 验证密钥文件")
}
