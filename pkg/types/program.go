package types

// ProgramManifest 程序清单（YAML）
//
// 示例：
//
//	program: credits
//	version: 1
//	functions:
//	  - name: join
//	    circuit: join
//	    inputs: [record, record]
//	  - name: fee
//	    circuit: fee
//	    inputs: [record, u64]
type ProgramManifest struct {
	Program   string         `yaml:"program" json:"program"`
	Version   uint32         `yaml:"version" json:"version"`
	Functions []FunctionSpec `yaml:"functions" json:"functions"`
}

// FunctionSpec 程序函数声明
type FunctionSpec struct {
	Name    string   `yaml:"name" json:"name"`
	Circuit string   `yaml:"circuit" json:"circuit"`
	Inputs  []string `yaml:"inputs" json:"inputs"`
}

// 函数输入类型
const (
	InputTypeRecord = "record"
	InputTypeU64    = "u64"
)

// Function 查找函数声明
func (m *ProgramManifest) Function(name string) (*FunctionSpec, bool) {
	for i := range m.Functions {
		if m.Functions[i].Name == name {
			return &m.Functions[i], true
		}
	}
	return nil, false
}

// Input 函数输入值（record 或 u64 二选一）
type Input struct {
	Record *Record
	U64    uint64
}

// RecordInput 记录输入
func RecordInput(r *Record) Input { return Input{Record: r} }

// U64Input 整数输入
func U64Input(v uint64) Input { return Input{U64: v} }
