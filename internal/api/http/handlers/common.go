// Package handlers 提供开发节点 HTTP API 的处理器
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/recordjoin/internal/core/ledger"
)

// ==================== 📋 标准API响应结构 ====================

// StandardAPIResponse 标准API响应格式
type StandardAPIResponse struct {
	Success bool        `json:"success"`           // 操作是否成功
	Data    interface{} `json:"data,omitempty"`    // 响应数据（成功时）
	Message string      `json:"message,omitempty"` // 简要说明
	Error   *APIError   `json:"error,omitempty"`   // 错误信息（失败时）
}

// APIError 标准错误结构
type APIError struct {
	Code    string `json:"code"`              // 错误代码（用于程序化处理）
	Message string `json:"message"`           // 错误消息
	Details string `json:"details,omitempty"` // 详细错误信息（调试用）
}

// ==================== 🎯 错误代码常量 ====================

const (
	ErrorCodeInvalidRequest    = "INVALID_REQUEST"
	ErrorCodeUnknownCommitment = ledger.ErrorCodeUnknownCommitment
	ErrorCodeAlreadySpent      = "ALREADY_SPENT"
	ErrorCodeStaleStateRoot    = "STALE_STATE_ROOT"
	ErrorCodeInternalError     = "INTERNAL_ERROR"
	ErrorCodeServiceFault      = "SERVICE_UNAVAILABLE"
)

// respondOK 写入成功响应
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, StandardAPIResponse{Success: true, Data: data})
}

// respondError 写入错误响应
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, StandardAPIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}
