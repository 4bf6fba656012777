// Package process 维护一次调用共享的进程上下文
//
// 🎯 **职责**：已加载程序的注册表、按函数惰性编译的约束系统，
// 以及与之关联的密钥缓存。同一次 Join 的执行阶段与费用阶段共享同一个上下文。
//
// 🏗️ **生命周期**：
//   - cache=true：使用 ProgramManager 持有的长生命周期上下文
//   - cache=false：每次调用新建上下文，调用结束后丢弃
package process

import (
	"fmt"
	"sync"

	"github.com/consensys/gnark/constraint"
	"github.com/google/uuid"

	"github.com/weisyn/recordjoin/internal/core/keycache"
	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/prover"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Function 已编译的程序函数
type Function struct {
	ProgramID string
	Spec      types.FunctionSpec
	Circuit   zkproof.CircuitFunction
	CCS       constraint.ConstraintSystem
}

type loadedProgram struct {
	manifest *types.ProgramManifest
	compiled map[string]*Function
}

// Context 进程上下文
type Context struct {
	id      string
	backend prover.Backend
	keys    *keycache.Cache
	logger  log.Logger

	mu       sync.Mutex
	programs map[string]*loadedProgram
}

// NewContext 创建进程上下文；keys 为 nil 时创建仅内存的缓存
func NewContext(backend prover.Backend, keys *keycache.Cache, logger log.Logger) *Context {
	if keys == nil {
		keys = keycache.New(logger, nil)
	}
	return &Context{
		id:       uuid.New().String(),
		backend:  backend,
		keys:     keys,
		logger:   logger,
		programs: make(map[string]*loadedProgram),
	}
}

// ID 进程标识，写入执行产物，组装时据此判断两个产物是否同源
func (c *Context) ID() string { return c.id }

// Backend 证明后端
func (c *Context) Backend() prover.Backend { return c.backend }

// Keys 关联的密钥缓存
func (c *Context) Keys() *keycache.Cache { return c.keys }

// Load 加载程序源码；同名程序已加载时保持原有注册不变
func (c *Context) Load(source string) (*types.ProgramManifest, error) {
	m, err := ParseProgram(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.programs[m.Program]; ok {
		return existing.manifest, nil
	}
	c.programs[m.Program] = &loadedProgram{manifest: m, compiled: make(map[string]*Function)}
	c.logger.Debugf("程序已加载: %s (函数数=%d)", m.Program, len(m.Functions))
	return m, nil
}

// Contains 程序是否已加载
func (c *Context) Contains(programID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.programs[programID]
	return ok
}

// Function 返回已编译的函数，首次访问时编译电路
func (c *Context) Function(programID, name string) (*Function, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prog, ok := c.programs[programID]
	if !ok {
		return nil, fmt.Errorf("program %s is not loaded", programID)
	}
	if fn, ok := prog.compiled[name]; ok {
		return fn, nil
	}
	spec, ok := prog.manifest.Function(name)
	if !ok {
		return nil, fmt.Errorf("program %s has no function %s", programID, name)
	}
	circuit, err := zkproof.LookupFunction(spec.Circuit)
	if err != nil {
		return nil, err
	}
	ccs, err := c.backend.Compile(circuit.Circuit())
	if err != nil {
		return nil, err
	}
	fn := &Function{ProgramID: programID, Spec: *spec, Circuit: circuit, CCS: ccs}
	prog.compiled[name] = fn
	return fn, nil
}
