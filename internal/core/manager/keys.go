package manager

import (
	"context"
	"fmt"

	"github.com/consensys/gnark/backend/groth16"

	"github.com/weisyn/recordjoin/internal/core/keycache"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// ============================================================================
//                              密钥管理
// ============================================================================

// KeyExists 长生命周期缓存中是否已有该函数的密钥（含持久化层）
func (pm *ProgramManager) KeyExists(programID, function string) bool {
	_, ok := pm.keys.Get(programID, function)
	return ok
}

// CacheKeypair 把外部提供的密钥写入缓存
func (pm *ProgramManager) CacheKeypair(programID, function string, pk groth16.ProvingKey, vk groth16.VerifyingKey) error {
	if pk == nil || vk == nil {
		return fmt.Errorf("%w: both proving and verifying keys are required", txerrors.ErrExecution)
	}
	pm.keys.Put(programID, function, &types.KeyPair{ProvingKey: pk, VerifyingKey: vk})
	pm.logger.Infof("已缓存外部密钥: %s", keycache.CacheKey(programID, function))
	return nil
}

// ClearKeyCache 清空内存与持久化密钥
func (pm *ProgramManager) ClearKeyCache() {
	pm.keys.Clear()
}

// SynthesizeKeys 预先合成内置 credits 程序函数的密钥并写入缓存
func (pm *ProgramManager) SynthesizeKeys(programID, function string) (*types.KeyPair, error) {
	if programID != process.CreditsProgram {
		return nil, txerrors.WrapExecutionError(programID, function, fmt.Errorf("unknown program"))
	}
	return pm.SynthesizeProgramKeys(process.CreditsSource, function)
}

// SynthesizeProgramKeys 加载程序源码并为指定函数合成密钥
func (pm *ProgramManager) SynthesizeProgramKeys(programSource, function string) (*types.KeyPair, error) {
	return pm.invoker.Synthesize(pm.proc, programSource, function)
}

// FetchFunctionKeys 下载预先合成的密钥（不写入缓存）
func (pm *ProgramManager) FetchFunctionKeys(ctx context.Context, proverURL, verifierURL string) (*types.KeyPair, error) {
	return keycache.FetchFunctionKeys(ctx, pm.httpClient, proverURL, verifierURL)
}
