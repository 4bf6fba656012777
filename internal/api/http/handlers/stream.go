package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

const (
	streamWriteTimeout = 5 * time.Second
	streamBuffer       = 64
)

// StreamHandler 账本变更推送（WebSocket）
//
// 连接建立后先推送一条 snapshot（当前状态根），之后逐条推送
// commitments / spent 变更。客户端无需发送任何消息。
type StreamHandler struct {
	state    *ledger.State
	logger   log.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler 创建推送处理器
func NewStreamHandler(state *ledger.State, logger log.Logger) *StreamHandler {
	return &StreamHandler{
		state:  state,
		logger: logger,
		upgrader: websocket.Upgrader{
			// 开发节点只监听本地地址
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleLedgerStream 处理 WebSocket 连接
//
// GET /ws/ledger
func (h *StreamHandler) HandleLedgerStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	// 先订阅再发快照，保证客户端收到快照后不会漏掉变更
	updates, cancel := h.state.Subscribe(streamBuffer)
	defer cancel()

	root := h.state.Root()
	snapshot := &types.LedgerUpdate{Kind: types.LedgerUpdateSnapshot, StateRoot: root.StateRoot, Height: root.Height}
	if err := h.write(conn, snapshot); err != nil {
		return
	}

	// 读循环只用于感知客户端断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, update); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debugf("推送账本变更失败: %v", err)
				}
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, update *types.LedgerUpdate) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(update)
}
