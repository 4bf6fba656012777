package handlers

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

// LedgerHandler 账本端点处理器
//
// 📋 **端点**：
//   - GET  /state/root   当前状态根
//   - POST /inclusion    承诺的 Merkle 路径（409 状态根过期或已花费，404 承诺未知）
//   - POST /commitments  登记新承诺（出一个新块）
//   - POST /spent        标记序列号已花费
type LedgerHandler struct {
	state  *ledger.State
	logger log.Logger

	// faultStatus 非零时所有请求返回该状态码（用于模拟节点故障）
	faultStatus atomic.Int32
}

// NewLedgerHandler 创建账本处理器
func NewLedgerHandler(state *ledger.State, logger log.Logger) *LedgerHandler {
	return &LedgerHandler{state: state, logger: logger}
}

// RegisterRoutes 注册账本路由
func (h *LedgerHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(h.faultInjection)
	r.GET(ledger.PathStateRoot, h.GetStateRoot)
	r.POST(ledger.PathInclusion, h.PostInclusion)
	r.POST(ledger.PathCommitments, h.PostCommitments)
	r.POST(ledger.PathSpent, h.PostSpent)
}

// InjectFault 设置故障状态码，0 表示恢复正常
func (h *LedgerHandler) InjectFault(status int) {
	h.faultStatus.Store(int32(status))
}

func (h *LedgerHandler) faultInjection(c *gin.Context) {
	if status := int(h.faultStatus.Load()); status != 0 {
		respondError(c, status, ErrorCodeServiceFault, "injected fault")
		return
	}
	c.Next()
}

// GetStateRoot 获取当前状态根
//
// GET /api/v1/state/root
func (h *LedgerHandler) GetStateRoot(c *gin.Context) {
	respondOK(c, h.state.Root())
}

// PostInclusion 获取 Merkle 路径
//
// POST /api/v1/inclusion
func (h *LedgerHandler) PostInclusion(c *gin.Context) {
	var query types.InclusionQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}

	proof, err := h.state.Inclusion(&query)
	switch {
	case err == nil:
		respondOK(c, proof)
	case errors.Is(err, ledger.ErrRootMismatch):
		respondError(c, http.StatusConflict, ErrorCodeStaleStateRoot, err.Error())
	case errors.Is(err, ledger.ErrAlreadySpent):
		respondError(c, http.StatusConflict, ErrorCodeAlreadySpent, err.Error())
	case errors.Is(err, ledger.ErrUnknownCommitment):
		respondError(c, http.StatusNotFound, ErrorCodeUnknownCommitment, err.Error())
	default:
		h.logger.Errorf("生成包含性证明失败: %v", err)
		respondError(c, http.StatusInternalServerError, ErrorCodeInternalError, err.Error())
	}
}

type commitmentsRequest struct {
	Commitments []string `json:"commitments" binding:"required"`
}

// PostCommitments 登记承诺
//
// POST /api/v1/commitments
func (h *LedgerHandler) PostCommitments(c *gin.Context) {
	var req commitmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}
	info, err := h.state.AddCommitments(req.Commitments...)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}
	h.logger.Infof("登记承诺: 数量=%d, 高度=%d", len(req.Commitments), info.Height)
	respondOK(c, info)
}

type spentRequest struct {
	SerialNumbers []string `json:"serial_numbers" binding:"required"`
}

// PostSpent 标记已花费
//
// POST /api/v1/spent
func (h *LedgerHandler) PostSpent(c *gin.Context) {
	var req spentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}
	h.state.MarkSpent(req.SerialNumbers...)
	respondOK(c, gin.H{"spent": len(req.SerialNumbers)})
}
