package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	infralog "github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
)

// AccessLog 访问日志
//
// 按状态码选择级别：5xx 为 error，4xx 为 warn（409 过期状态属于预期，也记为 warn），
// 其余为 debug，避免 CLI 联调时刷屏。
func AccessLog(logger infralog.Logger) gin.HandlerFunc {
	zl := logger.GetZapLogger().Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ce := zl.Check(levelForStatus(status), "request")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("route", c.Request.Method+" "+c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		ce.Write(fields...)
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.DebugLevel
	}
}
