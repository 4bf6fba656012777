package types

// StateRootInfo 账本当前状态根
type StateRootInfo struct {
	StateRoot string `json:"state_root"`
	Height    uint64 `json:"height"`
}

// InclusionQuery 包含性证明查询
//
// StateRoot 非空时要求节点在该状态根上应答，状态根已变化则返回过期错误。
type InclusionQuery struct {
	Commitments   []string `json:"commitments"`
	SerialNumbers []string `json:"serial_numbers"`
	StateRoot     string   `json:"state_root,omitempty"`
}

// 账本变更类别
const (
	LedgerUpdateCommitments = "commitments"
	LedgerUpdateSpent       = "spent"
	LedgerUpdateSnapshot    = "snapshot"
)

// LedgerUpdate 开发节点推送的账本变更
type LedgerUpdate struct {
	Kind      string   `json:"kind"`
	StateRoot string   `json:"state_root"`
	Height    uint64   `json:"height"`
	Items     []string `json:"items,omitempty"` // 新承诺或新花费的序列号
}
