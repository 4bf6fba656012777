// Package testutil 提供各模块测试共用的 Mock 对象与测试数据
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"go.uber.org/zap"

	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/prover"
	"github.com/weisyn/recordjoin/pkg/types"
)

// ==================== Mock 对象 ====================

// MockLogger 统一的日志Mock实现
//
// ✅ 所有方法为空实现，适合不关心日志内容的测试
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(msg string)                          {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// BehavioralMockLogger 记录所有日志调用，用于断言日志行为
type BehavioralMockLogger struct {
	logs  []string
	mutex sync.Mutex
}

func (m *BehavioralMockLogger) record(level, msg string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.logs = append(m.logs, level+": "+msg)
}

func (m *BehavioralMockLogger) Debug(msg string) { m.record("DEBUG", msg) }
func (m *BehavioralMockLogger) Debugf(format string, args ...interface{}) {
	m.record("DEBUG", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Info(msg string) { m.record("INFO", msg) }
func (m *BehavioralMockLogger) Infof(format string, args ...interface{}) {
	m.record("INFO", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Warn(msg string) { m.record("WARN", msg) }
func (m *BehavioralMockLogger) Warnf(format string, args ...interface{}) {
	m.record("WARN", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Error(msg string) { m.record("ERROR", msg) }
func (m *BehavioralMockLogger) Errorf(format string, args ...interface{}) {
	m.record("ERROR", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) Fatal(msg string) { m.record("FATAL", msg) }
func (m *BehavioralMockLogger) Fatalf(format string, args ...interface{}) {
	m.record("FATAL", fmt.Sprintf(format, args...))
}
func (m *BehavioralMockLogger) With(args ...interface{}) log.Logger { return m }
func (m *BehavioralMockLogger) Sync() error                         { return nil }
func (m *BehavioralMockLogger) GetZapLogger() *zap.Logger           { return zap.NewNop() }

// GetLogs 返回全部日志
func (m *BehavioralMockLogger) GetLogs() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]string(nil), m.logs...)
}

// Contains 是否存在包含 substr 的日志
func (m *BehavioralMockLogger) Contains(substr string) bool {
	for _, l := range m.GetLogs() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// ==================== 计数证明后端 ====================

// CountingBackend 包装真实证明后端，统计各操作调用次数
type CountingBackend struct {
	Inner prover.Backend

	compiles    atomic.Int64
	syntheses   atomic.Int64
	proves      atomic.Int64
	verifies    atomic.Int64
	failProving atomic.Bool
}

// NewCountingBackend 创建计数后端
func NewCountingBackend(inner prover.Backend) *CountingBackend {
	return &CountingBackend{Inner: inner}
}

var _ prover.Backend = (*CountingBackend)(nil)

func (b *CountingBackend) Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	b.compiles.Add(1)
	return b.Inner.Compile(circuit)
}

func (b *CountingBackend) Synthesize(ccs constraint.ConstraintSystem) (*types.KeyPair, error) {
	b.syntheses.Add(1)
	return b.Inner.Synthesize(ccs)
}

func (b *CountingBackend) Prove(ccs constraint.ConstraintSystem, keys *types.KeyPair, assignment frontend.Circuit) (*prover.ProveResult, error) {
	b.proves.Add(1)
	if b.failProving.Load() {
		return nil, fmt.Errorf("injected proving failure")
	}
	return b.Inner.Prove(ccs, keys, assignment)
}

func (b *CountingBackend) Verify(vk []byte, proof []byte, publicAssignment frontend.Circuit) error {
	b.verifies.Add(1)
	return b.Inner.Verify(vk, proof, publicAssignment)
}

// FailProving 让后续 Prove 调用返回错误
func (b *CountingBackend) FailProving(fail bool) { b.failProving.Store(fail) }

// Compiles 编译次数
func (b *CountingBackend) Compiles() int { return int(b.compiles.Load()) }

// Syntheses 密钥合成次数
func (b *CountingBackend) Syntheses() int { return int(b.syntheses.Load()) }

// Proves 证明次数（即执行次数）
func (b *CountingBackend) Proves() int { return int(b.proves.Load()) }

// Verifies 验证次数
func (b *CountingBackend) Verifies() int { return int(b.verifies.Load()) }
