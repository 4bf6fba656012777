// Package manager 提供面向调用方的程序管理器
//
// 🎯 **核心职责**：
//   - Join：把两条记录合并为一条，附加费用执行，组装为签名交易
//   - 密钥管理：查询、写入、清空、预合成、下载函数密钥
//   - 交易校验：重新验证证明、包含性路径与签名
//
// 🏗️ **流程**：
//
//	validate → execute:credits/join → resolve:credits/join
//	         → execute:credits/fee → resolve:credits/fee → assemble
//
// 每个阶段在第一个错误处返回，错误带阶段标注；不会返回部分组装的交易。
//
// ⚠️ **进程上下文**：cache=true 时使用管理器持有的长生命周期上下文（共享密钥缓存）；
// cache=false 时每次调用新建上下文，合成的密钥随上下文丢弃。
package manager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/recordjoin/internal/core/amount"
	"github.com/weisyn/recordjoin/internal/core/execution"
	"github.com/weisyn/recordjoin/internal/core/fee"
	"github.com/weisyn/recordjoin/internal/core/inclusion"
	eventimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/event"
	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
	"github.com/weisyn/recordjoin/internal/core/keycache"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/internal/core/tx/assembler"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/ledger"
	"github.com/weisyn/recordjoin/pkg/interfaces/prover"
	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// assembleFunc 交易组装函数
type assembleFunc func(exec *types.ResolvedExecution, fee *types.FeeArtifact, signingKey *types.PrivateKey) (*types.Transaction, error)

// JoinRequest Join 调用参数
type JoinRequest struct {
	SigningKey *types.PrivateKey
	Record1    *types.Record
	Record2    *types.Record
	FeeCredits float64
	FeeRecord  *types.Record
	NodeURL    string
	Cache      bool
	JoinKeys   types.KeyOption
	FeeKeys    types.KeyOption
}

// ProgramManager 程序管理器
type ProgramManager struct {
	logger  log.Logger
	backend prover.Backend
	keys    *keycache.Cache
	proc    *process.Context

	invoker  *execution.Invoker
	resolver *inclusion.Resolver
	fees     *fee.Assembler
	assemble assembleFunc

	store          txiface.Store
	bus            event.EventBus
	httpClient     *http.Client
	defaultNodeURL string
}

// Option 管理器可选配置
type Option func(*ProgramManager)

// WithStore 组装成功的交易写入存储
func WithStore(store txiface.Store) Option {
	return func(pm *ProgramManager) { pm.store = store }
}

// WithEventBus 发布阶段事件
func WithEventBus(bus event.EventBus) Option {
	return func(pm *ProgramManager) { pm.bus = bus }
}

// WithDefaultNodeURL 调用方未指定节点地址时使用
func WithDefaultNodeURL(url string) Option {
	return func(pm *ProgramManager) { pm.defaultNodeURL = url }
}

// WithHTTPClient 下载函数密钥使用的 HTTP 客户端
func WithHTTPClient(client *http.Client) Option {
	return func(pm *ProgramManager) { pm.httpClient = client }
}

// NewProgramManager 创建程序管理器
//
// keys 为 nil 时使用仅内存的密钥缓存。
func NewProgramManager(backend prover.Backend, keys *keycache.Cache, clients ledger.ClientFactory, logger log.Logger, opts ...Option) *ProgramManager {
	if keys == nil {
		keys = keycache.New(logger, nil)
	}
	invoker := execution.NewInvoker(logger)
	resolver := inclusion.NewResolver(logger, clients)
	pm := &ProgramManager{
		logger:   logger,
		backend:  backend,
		keys:     keys,
		proc:     process.NewContext(backend, keys, logger),
		invoker:  invoker,
		resolver: resolver,
		fees:     fee.NewAssembler(invoker, resolver, logger),
		assemble: assembler.Assemble,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// Keys 返回长生命周期上下文的密钥缓存
func (pm *ProgramManager) Keys() *keycache.Cache { return pm.keys }

// Store 返回交易存储（未配置时为 nil）
func (pm *ProgramManager) Store() txiface.Store { return pm.store }

// Join 合并两条记录并附加费用，返回签名交易
func (pm *ProgramManager) Join(
	ctx context.Context,
	signingKey *types.PrivateKey,
	record1, record2 *types.Record,
	feeCredits float64,
	feeRecord *types.Record,
	nodeURL string,
	cache bool,
	joinKeys, feeKeys types.KeyOption,
) (*types.Transaction, error) {
	return pm.JoinWith(ctx, &JoinRequest{
		SigningKey: signingKey,
		Record1:    record1,
		Record2:    record2,
		FeeCredits: feeCredits,
		FeeRecord:  feeRecord,
		NodeURL:    nodeURL,
		Cache:      cache,
		JoinKeys:   joinKeys,
		FeeKeys:    feeKeys,
	})
}

// JoinWith 以请求结构体形式调用 Join
func (pm *ProgramManager) JoinWith(ctx context.Context, req *JoinRequest) (*types.Transaction, error) {
	tx, err := pm.join(ctx, req)
	if err != nil {
		metrics.RecordJoin(resultLabel(err))
		pm.logger.Warnf("Join 失败: stage=%s, err=%v", txerrors.StageOf(err), err)
		return nil, err
	}
	metrics.RecordJoin("success")
	return tx, nil
}

func (pm *ProgramManager) join(ctx context.Context, req *JoinRequest) (*types.Transaction, error) {
	callID := uuid.New().String()
	stages := &stageReporter{bus: pm.bus, callID: callID}

	// 1. 前置检查：在任何证明工作之前完成
	var feeMicro uint64
	err := stages.run(txerrors.StageValidate, func() error {
		if req == nil || req.SigningKey == nil {
			return fmt.Errorf("%w: signing key is required", txerrors.ErrExecution)
		}
		if req.Record1 == nil || req.Record2 == nil || req.FeeRecord == nil {
			return fmt.Errorf("%w: join requires two records and a fee record", txerrors.ErrExecution)
		}
		if err := checkDistinct(req.Record1, req.Record2, req.FeeRecord); err != nil {
			return err
		}
		var err error
		feeMicro, err = amount.Validate(req.FeeCredits, req.FeeRecord, true)
		return err
	})
	if err != nil {
		return nil, txerrors.AtStage(txerrors.StageValidate, err)
	}

	nodeURL := req.NodeURL
	if nodeURL == "" {
		nodeURL = pm.defaultNodeURL
	}
	proc := pm.proc
	if !req.Cache {
		proc = process.NewContext(pm.backend, nil, pm.logger)
	}
	pm.logger.Infof("开始 Join: call=%s, process=%s, fee=%d, node=%s, cache=%v",
		callID, proc.ID(), feeMicro, nodeURL, req.Cache)

	// 2. 主执行
	executeStage := txerrors.ExecuteStage(process.CreditsProgram, process.FunctionJoin)
	var res *execution.Result
	err = stages.run(executeStage, func() error {
		var err error
		res, err = pm.invoker.Invoke(ctx, proc, &execution.Request{
			ProgramSource: process.CreditsSource,
			Function:      process.FunctionJoin,
			Inputs:        []types.Input{types.RecordInput(req.Record1), types.RecordInput(req.Record2)},
			SigningKey:    req.SigningKey,
			Keys:          req.JoinKeys,
			Cache:         req.Cache,
		})
		return err
	})
	if err != nil {
		return nil, txerrors.AtStage(executeStage, err)
	}

	// 3. 主执行包含性证明
	resolveStage := txerrors.ResolveStage(process.CreditsProgram, process.FunctionJoin)
	var resolved *types.ResolvedExecution
	err = stages.run(resolveStage, func() error {
		var err error
		resolved, err = pm.resolver.Resolve(ctx, proc, res.Witness, res.Artifact, nodeURL)
		return err
	})
	if err != nil {
		return nil, txerrors.AtStage(resolveStage, err)
	}

	// 4. 费用执行，固定在主执行的状态根上
	var feeArtifact *types.FeeArtifact
	err = stages.run("fee", func() error {
		var err error
		feeArtifact, err = pm.fees.Build(ctx, proc, &fee.Request{
			SigningKey:   req.SigningKey,
			FeeRecord:    req.FeeRecord,
			Microcredits: feeMicro,
			NodeURL:      nodeURL,
			Keys:         req.FeeKeys,
			Cache:        req.Cache,
			PinRoot:      resolved.Inclusion.StateRoot,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	// 5. 组装
	var tx *types.Transaction
	err = stages.run(txerrors.StageAssemble, func() error {
		var err error
		tx, err = pm.assemble(resolved, feeArtifact, req.SigningKey)
		return err
	})
	if err != nil {
		return nil, txerrors.AtStage(txerrors.StageAssemble, err)
	}

	if pm.store != nil {
		if err := pm.store.Save(ctx, tx); err != nil {
			// 交易已组装完成，存储失败不影响返回结果
			pm.logger.Errorf("保存交易失败: id=%s, err=%v", tx.ID, err)
		}
	}

	pm.logger.Infof("Join 完成: tx=%s, 状态根=%s, 费用=%d, 密钥来源=%s",
		tx.ID, resolved.Inclusion.StateRoot, feeMicro, res.Resources.KeySource)
	return tx, nil
}

// resultLabel 错误对应的指标标签
// checkDistinct 三条输入记录必须互不相同；同一记录只能被消费一次
func checkDistinct(record1, record2, feeRecord *types.Record) error {
	cms := make([]string, 0, 3)
	for _, r := range []*types.Record{record1, record2, feeRecord} {
		cm, err := r.Commitment()
		if err != nil {
			return fmt.Errorf("%w: %v", txerrors.ErrExecution, err)
		}
		cms = append(cms, field.Hex(cm))
	}
	switch {
	case cms[0] == cms[1]:
		return fmt.Errorf("%w: cannot join a record with itself", txerrors.ErrExecution)
	case cms[2] == cms[0] || cms[2] == cms[1]:
		return fmt.Errorf("%w: fee record is also a join input", txerrors.ErrExecution)
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, txerrors.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, txerrors.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, txerrors.ErrExecution):
		return "execution"
	case errors.Is(err, txerrors.ErrNetwork):
		return "network"
	case errors.Is(err, txerrors.ErrStaleState):
		return "stale_state"
	case errors.Is(err, txerrors.ErrAssembly):
		return "assembly"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// ==================== 阶段事件 ====================

// stageReporter 发布阶段事件；未配置事件总线时只执行阶段函数
type stageReporter struct {
	bus    event.EventBus
	callID string
}

func (s *stageReporter) run(stage string, fn func() error) error {
	start := time.Now()
	s.publish(types.StageEvent{CallID: s.callID, Stage: stage, Status: types.StageStarted, Timestamp: start})
	err := fn()
	ev := types.StageEvent{
		CallID:    s.callID,
		Stage:     stage,
		Status:    types.StageCompleted,
		Elapsed:   time.Since(start),
		Timestamp: time.Now(),
	}
	if err != nil {
		ev.Status = types.StageFailed
		ev.Err = err
		if named := txerrors.StageOf(err); named != "" {
			ev.Stage = named
		}
	}
	s.publish(ev)
	return err
}

func (s *stageReporter) publish(ev types.StageEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventimpl.EventTypeJoinStage, ev)
}
