package log

import (
	"fmt"
	"strings"
)

// LogLevel 日志级别名称，与 configs/recordjoin.json 中 log.level 的取值一致
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

// ParseLevel 解析日志级别名称（大小写不敏感，warning 视为 warn）
func ParseLevel(name string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(name))); level {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return level, nil
	case "warning":
		return WarnLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", name)
	}
}
