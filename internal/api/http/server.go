// Package http 提供开发用账本节点（mocknode）的 HTTP 服务
//
// 🎯 **用途**：本地联调与端到端测试。节点维护内存中的承诺 Merkle 树，
// 按 /api/v1 下的接口提供状态根与包含性证明，/ws/ledger 推送账本变更，
// /metrics 导出 Prometheus 指标。
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weisyn/recordjoin/internal/api/http/handlers"
	"github.com/weisyn/recordjoin/internal/api/http/middleware"
	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
)

// Server 开发节点 HTTP 服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     log.Logger
	state      *ledger.State
	ledger     *handlers.LedgerHandler
	stream     *handlers.StreamHandler
	listener   net.Listener
}

// NewServer 创建服务器并注册路由
func NewServer(state *ledger.State, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(logger), middleware.Metrics())

	s := &Server{
		router: router,
		logger: logger,
		state:  state,
		ledger: handlers.NewLedgerHandler(state, logger),
		stream: handlers.NewStreamHandler(state, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.ledger.RegisterRoutes(s.router.Group("/api/v1"))
	s.router.GET("/ws/ledger", s.stream.HandleLedgerStream)
}

// Handler HTTP 处理器（供 httptest 使用）
func (s *Server) Handler() http.Handler { return s.router }

// State 账本状态
func (s *Server) State() *ledger.State { return s.state }

// InjectFault 让所有 API 请求返回指定状态码，0 表示恢复
func (s *Server) InjectFault(status int) { s.ledger.InjectFault(status) }

// Start 在 addr 上开始监听
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("HTTP服务器异常退出: %v", err)
		}
	}()
	s.logger.Infof("开发节点已启动: http://%s/api/v1", ln.Addr())
	return nil
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("正在停止开发节点")
	return s.httpServer.Shutdown(ctx)
}
