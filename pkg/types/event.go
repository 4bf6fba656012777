package types

import "time"

// StageStatus 阶段状态
type StageStatus string

const (
	StageStarted   StageStatus = "started"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageEvent Join 流程阶段事件
type StageEvent struct {
	CallID    string        `json:"call_id"`
	Stage     string        `json:"stage"`
	Status    StageStatus   `json:"status"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       error         `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
}
