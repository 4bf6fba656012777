// Package txerrors 定义记录合并交易组装流程的错误分类
//
// 🎯 **错误分类**
//   - ErrInvalidAmount / ErrInsufficientBalance：前置条件失败，立即返回，不重试
//   - ErrExecution：证明后端编译/执行失败，本次调用终止
//   - ErrNetwork：瞬时网络错误，调用方可以整体重试
//   - ErrStaleState：账本状态已变化，调用方需要刷新状态后重试
//   - ErrAssembly：组装阶段发现状态不一致，属于程序缺陷信号
//
// 每个阶段在第一个错误处立即返回，并用 StageError 标注失败阶段，
// 不会返回部分组装的交易。
package txerrors

import (
	"errors"
	"fmt"
)

// ============================================================================
//                               错误定义
// ============================================================================

var (
	// ErrInvalidAmount 金额无效（精度丢失、非正数、溢出）
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance 费用记录余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrExecution 程序执行失败
	ErrExecution = errors.New("execution error")

	// ErrNetwork 节点通信失败
	ErrNetwork = errors.New("network error")

	// ErrStaleState 引用的账本状态已不是最新
	ErrStaleState = errors.New("stale state")

	// ErrAssembly 交易组装失败
	ErrAssembly = errors.New("assembly error")
)

// 流程阶段名称
const (
	StageValidate = "validate"
	StageAssemble = "assemble"
)

// ExecuteStage 执行阶段名称，如 execute:credits/join
func ExecuteStage(programID, function string) string {
	return fmt.Sprintf("execute:%s/%s", programID, function)
}

// ResolveStage 解析阶段名称，如 resolve:credits/fee
func ResolveStage(programID, function string) string {
	return fmt.Sprintf("resolve:%s/%s", programID, function)
}

// StageError 标注失败阶段的错误
type StageError struct {
	Stage string
	Err   error
}

// Error 实现 error 接口
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap 支持 errors.Is / errors.As
func (e *StageError) Unwrap() error { return e.Err }

// AtStage 为错误标注阶段；已经带有阶段信息的错误原样返回
func AtStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf 返回错误所在阶段，没有阶段信息时返回空字符串
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// Retryable 网络错误和状态过期错误可以由调用方重试整个调用
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrStaleState)
}

// ============================================================================
//                               错误包装函数
// ============================================================================

// WrapInvalidAmountError 包装金额无效错误
func WrapInvalidAmountError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidAmount, reason)
}

// WrapInsufficientBalanceError 包装余额不足错误
func WrapInsufficientBalanceError(required, available uint64) error {
	return fmt.Errorf("%w: required=%d, available=%d", ErrInsufficientBalance, required, available)
}

// WrapExecutionError 包装执行错误，保留原始错误链
func WrapExecutionError(programID, function string, err error) error {
	return fmt.Errorf("%w: %s/%s: %w", ErrExecution, programID, function, err)
}

// WrapNetworkError 包装网络错误
func WrapNetworkError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, op, err)
}

// WrapStaleStateError 包装状态过期错误
func WrapStaleStateError(reason string) error {
	return fmt.Errorf("%w: %s", ErrStaleState, reason)
}

// WrapAssemblyError 包装组装错误
func WrapAssemblyError(reason string) error {
	return fmt.Errorf("%w: %s", ErrAssembly, reason)
}
