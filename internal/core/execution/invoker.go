// Package execution 在进程上下文中调用程序函数并产出执行产物
//
// 🎯 **职责**：加载程序、派生确定性种子、选择密钥来源、生成证明，
// 并返回输出记录、执行产物、未解析的包含性见证以及资源消耗。
//
// 🏗️ **密钥来源优先级**：
//  1. 调用方提供的完整密钥对（原样使用；cache=true 时同时写入缓存）
//  2. 进程上下文的密钥缓存
//  3. 现场合成（同一上下文同一函数的并发合成只执行一次；cache=true 时写入缓存）
//
// ⚠️ 证明合成与生成不可中断，ctx 只在开始前检查。
package execution

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/sync/singleflight"

	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
	"github.com/weisyn/recordjoin/internal/core/keycache"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// 密钥来源
const (
	KeySourceSupplied    = "supplied"
	KeySourceCache       = "cache"
	KeySourceSynthesized = "synthesized"
)

// seedSize 派生种子长度
const seedSize = 32

// Request 执行请求
type Request struct {
	ProgramSource string
	Function      string
	Inputs        []types.Input
	SigningKey    *types.PrivateKey
	Keys          types.KeyOption
	Cache         bool
}

// Result 执行结果
type Result struct {
	Outputs   []*types.Record
	Artifact  *types.ExecutionArtifact
	Witness   *types.InclusionWitness
	Resources types.ConsumedResources
}

// Invoker 执行调用器
type Invoker struct {
	logger log.Logger
	group  singleflight.Group
}

// NewInvoker 创建执行调用器
func NewInvoker(logger log.Logger) *Invoker {
	return &Invoker{logger: logger}
}

// Invoke 执行程序函数
func (inv *Invoker) Invoke(ctx context.Context, proc *process.Context, req *Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil || req.SigningKey == nil {
		return nil, fmt.Errorf("%w: signing key is required", txerrors.ErrExecution)
	}

	manifest, err := proc.Load(req.ProgramSource)
	if err != nil {
		return nil, fmt.Errorf("%w: load program: %w", txerrors.ErrExecution, err)
	}
	programID := manifest.Program
	wrap := func(err error) error { return txerrors.WrapExecutionError(programID, req.Function, err) }

	fn, err := proc.Function(programID, req.Function)
	if err != nil {
		return nil, wrap(err)
	}
	if err := process.CheckInputs(&fn.Spec, req.Inputs); err != nil {
		return nil, wrap(err)
	}

	sk := req.SigningKey.SecretField()
	seed, err := deriveSeed(req.SigningKey, programID, req.Function, sk, req.Inputs)
	if err != nil {
		return nil, wrap(err)
	}
	assignment, err := fn.Circuit.Assign(sk, req.Inputs, seed)
	if err != nil {
		return nil, wrap(err)
	}

	keys, source, err := inv.resolveKeys(proc, fn, req)
	if err != nil {
		return nil, wrap(err)
	}

	proved, err := proc.Backend().Prove(fn.CCS, keys, assignment.Witness)
	if err != nil {
		return nil, wrap(err)
	}
	metrics.ObserveProving(keycache.CacheKey(programID, req.Function), proved.Duration)

	vkBytes, err := types.MarshalVerifyingKey(keys.VerifyingKey)
	if err != nil {
		return nil, wrap(err)
	}
	vkHash, err := keys.VerifyingKeyHash()
	if err != nil {
		return nil, wrap(err)
	}

	artifact := &types.ExecutionArtifact{
		ProcessID:     proc.ID(),
		ProgramID:     programID,
		Function:      req.Function,
		TransitionID:  transitionID(programID, req.Function, proved.Proof, assignment.PublicInputs),
		Inputs:        assignment.Consumed,
		Outputs:       assignment.Outputs,
		PublicInputs:  assignment.PublicInputs,
		Proof:         proved.Proof,
		PublicWitness: proved.PublicWitness,
		VerifyingKey:  vkBytes,
		VKHash:        vkHash,
	}
	witness := &types.InclusionWitness{}
	for _, in := range assignment.Consumed {
		witness.Commitments = append(witness.Commitments, in.Commitment)
		witness.SerialNumbers = append(witness.SerialNumbers, in.SerialNumber)
	}

	inv.logger.Infof("执行完成: %s/%s, transition=%s, 密钥来源=%s, 约束数=%d, 证明耗时=%v",
		programID, req.Function, artifact.TransitionID, source, proved.ConstraintCount, proved.Duration)

	return &Result{
		Outputs:  assignment.Outputs,
		Artifact: artifact,
		Witness:  witness,
		Resources: types.ConsumedResources{
			ConstraintCount: proved.ConstraintCount,
			ProvingTime:     proved.Duration,
			KeysSynthesized: source == KeySourceSynthesized,
			KeySource:       source,
		},
	}, nil
}

// resolveKeys 按优先级选择密钥
func (inv *Invoker) resolveKeys(proc *process.Context, fn *process.Function, req *Request) (*types.KeyPair, string, error) {
	cache := proc.Keys()
	programID, name := fn.ProgramID, fn.Spec.Name

	switch req.Keys.Kind() {
	case types.KeyOptionSupplied:
		kp := req.Keys.KeyPair()
		if req.Cache {
			cache.Put(programID, name, kp)
		}
		return kp, KeySourceSupplied, nil
	case types.KeyOptionPartial:
		inv.logger.Warnf("只提供了部分密钥，忽略并重新获取: %s/%s", programID, name)
	}

	if kp, ok := cache.Get(programID, name); ok {
		return kp, KeySourceCache, nil
	}

	flightKey := proc.ID() + "|" + keycache.CacheKey(programID, name)
	v, err, shared := inv.group.Do(flightKey, func() (interface{}, error) {
		// 等待期间其他调用可能已写入缓存
		if kp, ok := cache.Get(programID, name); ok {
			return kp, nil
		}
		kp, err := proc.Backend().Synthesize(fn.CCS)
		if err != nil {
			return nil, err
		}
		metrics.RecordKeySynthesis(keycache.CacheKey(programID, name))
		if req.Cache {
			cache.Put(programID, name, kp)
		}
		return kp, nil
	})
	if err != nil {
		return nil, "", err
	}
	if shared {
		inv.logger.Debugf("复用并发合成的密钥: %s/%s", programID, name)
	}
	return v.(*types.KeyPair), KeySourceSynthesized, nil
}

// Synthesize 为指定函数合成密钥并写入上下文缓存（不生成证明）
func (inv *Invoker) Synthesize(proc *process.Context, programSource, function string) (*types.KeyPair, error) {
	manifest, err := proc.Load(programSource)
	if err != nil {
		return nil, fmt.Errorf("%w: load program: %w", txerrors.ErrExecution, err)
	}
	fn, err := proc.Function(manifest.Program, function)
	if err != nil {
		return nil, txerrors.WrapExecutionError(manifest.Program, function, err)
	}
	kp, _, err := inv.resolveKeys(proc, fn, &Request{Function: function, Cache: true})
	if err != nil {
		return nil, txerrors.WrapExecutionError(manifest.Program, function, err)
	}
	return kp, nil
}

// deriveSeed 派生确定性种子：HKDF-SHA256(签名私钥, program/function, 输入序列号)
//
// 相同的私钥与输入总是得到相同的输出 nonce，重放同一调用不会产生新的输出记录。
func deriveSeed(key *types.PrivateKey, programID, function string, sk field.Element, inputs []types.Input) ([]byte, error) {
	var info []byte
	for _, in := range inputs {
		if in.Record == nil {
			info = append(info, field.Bytes(field.FromUint64(in.U64))...)
			continue
		}
		sn, err := in.Record.SerialNumber(sk)
		if err != nil {
			return nil, err
		}
		info = append(info, field.Bytes(sn)...)
	}
	r := hkdf.New(sha256.New, key.Bytes(), []byte(keycache.CacheKey(programID, function)), info)
	seed := make([]byte, seedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

// transitionID base58(blake2b-256(program | function | proof | public inputs))
func transitionID(programID, function string, proof []byte, publicInputs []string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(programID))
	h.Write([]byte{0})
	h.Write([]byte(function))
	h.Write([]byte{0})
	h.Write(proof)
	h.Write([]byte(strings.Join(publicInputs, ",")))
	return base58.Encode(h.Sum(nil))
}
