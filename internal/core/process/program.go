package process

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 内置 credits 程序
const (
	CreditsProgram = "credits"
	FunctionJoin   = "join"
	FunctionFee    = "fee"
)

// CreditsSource 内置 credits 程序清单
const CreditsSource = `program: credits
version: 1
functions:
  - name: join
    circuit: join
    inputs: [record, record]
  - name: fee
    circuit: fee
    inputs: [record, u64]
`

// circuitInputs 每种电路要求的输入签名
var circuitInputs = map[string][]string{
	zkproof.CircuitJoin: {types.InputTypeRecord, types.InputTypeRecord},
	zkproof.CircuitFee:  {types.InputTypeRecord, types.InputTypeU64},
}

// ParseProgram 解析并校验程序清单
func ParseProgram(source string) (*types.ProgramManifest, error) {
	var m types.ProgramManifest
	if err := yaml.Unmarshal([]byte(source), &m); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	if m.Program == "" {
		return nil, fmt.Errorf("program name is empty")
	}
	if len(m.Functions) == 0 {
		return nil, fmt.Errorf("program %s declares no functions", m.Program)
	}

	seen := make(map[string]struct{}, len(m.Functions))
	for _, fn := range m.Functions {
		if fn.Name == "" {
			return nil, fmt.Errorf("program %s: function name is empty", m.Program)
		}
		if _, dup := seen[fn.Name]; dup {
			return nil, fmt.Errorf("program %s: duplicate function %s", m.Program, fn.Name)
		}
		seen[fn.Name] = struct{}{}

		want, ok := circuitInputs[fn.Circuit]
		if !ok {
			return nil, fmt.Errorf("program %s: function %s: %w", m.Program, fn.Name, zkproof.WrapCircuitNotFoundError(fn.Circuit))
		}
		if !sameInputs(want, fn.Inputs) {
			return nil, fmt.Errorf("program %s: function %s: circuit %s expects inputs %v, got %v",
				m.Program, fn.Name, fn.Circuit, want, fn.Inputs)
		}
	}
	return &m, nil
}

func sameInputs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CheckInputs 校验调用输入与函数声明的类型一致
func CheckInputs(spec *types.FunctionSpec, inputs []types.Input) error {
	if len(inputs) != len(spec.Inputs) {
		return fmt.Errorf("function %s expects %d inputs, got %d", spec.Name, len(spec.Inputs), len(inputs))
	}
	for i, kind := range spec.Inputs {
		isRecord := inputs[i].Record != nil
		switch kind {
		case types.InputTypeRecord:
			if !isRecord {
				return fmt.Errorf("function %s: input %d must be a record", spec.Name, i)
			}
			if err := inputs[i].Record.Validate(); err != nil {
				return fmt.Errorf("function %s: input %d: %w", spec.Name, i, err)
			}
		case types.InputTypeU64:
			if isRecord {
				return fmt.Errorf("function %s: input %d must be a u64", spec.Name, i)
			}
		}
	}
	return nil
}
