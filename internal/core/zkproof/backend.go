package zkproof

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	proverconfig "github.com/weisyn/recordjoin/internal/config/prover"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/prover"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Groth16Backend 基于 gnark 的 Groth16/BN254 证明后端
//
// 🎯 **专门职责**：电路编译、可信设置、证明生成与验证
// ⚠️ **注意**：gnark 内部使用 zerolog 输出大量调试信息，按配置在调用期间静默
type Groth16Backend struct {
	logger log.Logger
	config *proverconfig.ProverOptions
}

// gnark 的 logger 是进程级全局变量，切换时需要串行化
var gnarkLoggerMu sync.Mutex

// NewGroth16Backend 创建证明后端
func NewGroth16Backend(logger log.Logger, config *proverconfig.ProverOptions) *Groth16Backend {
	if config == nil {
		config = proverconfig.New(nil).GetOptions()
	}
	return &Groth16Backend{
		logger: logger,
		config: config,
	}
}

var _ prover.Backend = (*Groth16Backend)(nil)

// silence 在 fn 执行期间禁用 gnark 日志
func (b *Groth16Backend) silence(fn func() error) error {
	if !b.config.SilenceGnark {
		return fn()
	}
	gnarkLoggerMu.Lock()
	oldGnarkLogger := gnarklogger.Logger()
	gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
	defer func() {
		gnarklogger.Set(oldGnarkLogger)
		gnarkLoggerMu.Unlock()
	}()
	return fn()
}

// Compile 编译电路
func (b *Groth16Backend) Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	var ccs constraint.ConstraintSystem
	err := b.silence(func() error {
		var err error
		ccs, err = frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
		return err
	})
	if err != nil {
		return nil, WrapCircuitCompilationFailedError(fmt.Sprintf("%T", circuit), err)
	}
	b.logger.Debugf("电路编译完成: %T, 约束数=%d", circuit, ccs.GetNbConstraints())
	return ccs, nil
}

// Synthesize 执行 Groth16 可信设置
func (b *Groth16Backend) Synthesize(ccs constraint.ConstraintSystem) (*types.KeyPair, error) {
	start := time.Now()
	var pk groth16.ProvingKey
	var vk groth16.VerifyingKey
	err := b.silence(func() error {
		var err error
		pk, vk, err = groth16.Setup(ccs)
		return err
	})
	if err != nil {
		return nil, WrapSetupFailedError(err)
	}
	b.logger.Debugf("密钥合成完成: 约束数=%d, 耗时=%v", ccs.GetNbConstraints(), time.Since(start))
	return &types.KeyPair{ProvingKey: pk, VerifyingKey: vk}, nil
}

// Prove 生成证明
func (b *Groth16Backend) Prove(ccs constraint.ConstraintSystem, keys *types.KeyPair, assignment frontend.Circuit) (*prover.ProveResult, error) {
	if keys == nil || keys.ProvingKey == nil {
		return nil, WrapProofGenerationFailedError(fmt.Errorf("proving key is nil"))
	}
	start := time.Now()

	fullWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, WrapInvalidWitnessError(fmt.Sprintf("%T", assignment), err.Error())
	}
	publicWitness, err := fullWitness.Public()
	if err != nil {
		return nil, WrapInvalidWitnessError(fmt.Sprintf("%T", assignment), err.Error())
	}

	var proof groth16.Proof
	err = b.silence(func() error {
		var err error
		proof, err = groth16.Prove(ccs, keys.ProvingKey, fullWitness)
		return err
	})
	if err != nil {
		return nil, WrapProofGenerationFailedError(err)
	}

	if b.config.VerifyOnProve && keys.VerifyingKey != nil {
		if err := groth16.Verify(proof, keys.VerifyingKey, publicWitness); err != nil {
			return nil, WrapProofVerificationFailedError(err)
		}
	}

	var proofBuf bytes.Buffer
	if _, err := proof.WriteTo(&proofBuf); err != nil {
		return nil, WrapProofGenerationFailedError(fmt.Errorf("serialize proof: %w", err))
	}
	pubBytes, err := publicWitness.MarshalBinary()
	if err != nil {
		return nil, WrapProofGenerationFailedError(fmt.Errorf("serialize public witness: %w", err))
	}

	duration := time.Since(start)
	b.logger.Debugf("证明生成完成: 耗时=%v, 大小=%d字节", duration, proofBuf.Len())

	return &prover.ProveResult{
		Proof:           proofBuf.Bytes(),
		PublicWitness:   pubBytes,
		ConstraintCount: ccs.GetNbConstraints(),
		Duration:        duration,
	}, nil
}

// Verify 验证证明
func (b *Groth16Backend) Verify(vkBytes []byte, proofBytes []byte, publicAssignment frontend.Circuit) error {
	vk, err := types.UnmarshalVerifyingKey(vkBytes)
	if err != nil {
		return WrapInvalidProofError(err.Error())
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return WrapInvalidProofError(fmt.Sprintf("deserialize proof: %v", err))
	}
	publicWitness, err := frontend.NewWitness(publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return WrapInvalidWitnessError(fmt.Sprintf("%T", publicAssignment), err.Error())
	}
	if err := groth16.Verify(proof, vk, publicWitness); err != nil {
		return WrapProofVerificationFailedError(err)
	}
	return nil
}
