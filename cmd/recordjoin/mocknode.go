package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apihttp "github.com/weisyn/recordjoin/internal/api/http"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

var (
	mocknodeListen  string
	mocknodeDepth   int
	mocknodeRecords []string
	mocknodeTxFile  string
)

// mocknodeCmd 本地开发节点
var mocknodeCmd = &cobra.Command{
	Use:   "mocknode",
	Short: "运行本地开发账本节点",
	Long: `在本地运行一个内存账本节点，提供与远程节点相同的 REST API：

  GET  /api/v1/state/root
  POST /api/v1/inclusion
  POST /api/v1/commitments   (开发接口)
  POST /api/v1/spent         (开发接口)
  GET  /ws/ledger            (WebSocket 账本变更推送)

另外提供 /health 与 /metrics。状态只保存在内存中，退出即丢失。`,
	RunE: runMocknode,
}

// mocknodeApplyCmd 把交易应用到开发节点
var mocknodeApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "把交易的消耗与输出应用到开发节点（标记已花费、登记新承诺）",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mocknodeTxFile == "" {
			return fmt.Errorf("必须指定 --file")
		}
		data, err := os.ReadFile(mocknodeTxFile)
		if err != nil {
			return err
		}
		tx, err := types.UnmarshalTransaction(data)
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()
		node := a.Provider.GetNode()
		client := ledger.NewRESTClient(node.URL, node.Timeout, a.Logger)

		var outputs []string
		for _, r := range tx.Outputs() {
			cm, err := r.Commitment()
			if err != nil {
				return err
			}
			outputs = append(outputs, field.Hex(cm))
		}
		ctx := context.Background()
		if err := client.MarkSpent(ctx, tx.Consumed()); err != nil {
			return err
		}
		root, err := client.RegisterCommitments(ctx, outputs)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("交易 %s 已应用，状态根=%s，高度=%d", tx.ID, root.StateRoot, root.Height)
		return nil
	},
}

// mocknodeWatchCmd 订阅开发节点的账本变更
var mocknodeWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "订阅开发节点的账本变更推送",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		url, err := ledgerStreamURL(a.Provider.GetNode().URL)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			return fmt.Errorf("连接 %s 失败: %w", url, err)
		}
		defer conn.Close()
		go func() {
			<-ctx.Done()
			_ = conn.Close()
		}()

		for {
			var update types.LedgerUpdate
			if err := conn.ReadJSON(&update); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("读取账本变更失败: %w", err)
			}
			if globalFlags.Output == "json" {
				if err := printResult(&update, ""); err != nil {
					return err
				}
				continue
			}
			pterm.Info.Printfln("[%s] 高度=%d 状态根=%s 条目=%d", update.Kind, update.Height, update.StateRoot, len(update.Items))
		}
	},
}

// ledgerStreamURL 由节点 REST 地址推导 WebSocket 推送地址
func ledgerStreamURL(nodeURL string) (string, error) {
	switch {
	case strings.HasPrefix(nodeURL, "https://"):
		return "wss://" + strings.TrimPrefix(nodeURL, "https://") + "/ws/ledger", nil
	case strings.HasPrefix(nodeURL, "http://"):
		return "ws://" + strings.TrimPrefix(nodeURL, "http://") + "/ws/ledger", nil
	default:
		return "", fmt.Errorf("不支持的节点地址: %s", nodeURL)
	}
}

func runMocknode(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Stop()

	depth := mocknodeDepth
	if depth == 0 {
		depth = a.Provider.GetProver().MerkleDepth
	}
	state, err := ledger.NewState(depth)
	if err != nil {
		return err
	}
	for _, arg := range mocknodeRecords {
		rec, err := readRecord(arg)
		if err != nil {
			return err
		}
		if _, err := state.AddRecords(rec); err != nil {
			return err
		}
	}

	listen := mocknodeListen
	if listen == "" {
		listen = a.Provider.GetNode().ListenAddr
	}
	server := apihttp.NewServer(state, a.Logger)
	if err := server.Start(listen); err != nil {
		return err
	}
	root := state.Root()
	pterm.Success.Printfln("开发节点已启动: http://%s/api/v1 (深度=%d, 状态根=%s)", server.Addr(), depth, root.StateRoot)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pterm.Info.Println("正在停止开发节点...")
	return server.Stop(ctx)
}

func init() {
	mocknodeCmd.Flags().StringVar(&mocknodeListen, "listen", "", "监听地址 (默认取配置 node.listen_addr)")
	mocknodeCmd.Flags().IntVar(&mocknodeDepth, "depth", 0, "承诺树深度 (默认取配置 prover.merkle_depth)")
	mocknodeCmd.Flags().StringArrayVar(&mocknodeRecords, "record", nil, "启动时登记的记录 (JSON 或 @文件，可重复)")

	mocknodeApplyCmd.Flags().StringVar(&mocknodeTxFile, "file", "", "交易文件")
	mocknodeCmd.AddCommand(mocknodeApplyCmd)
	mocknodeCmd.AddCommand(mocknodeWatchCmd)
}
