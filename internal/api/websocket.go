// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/Corphon/FunnelCraft/internal/models"
	"github.com/Corphon/FunnelCraft/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 54 * time.Second
	wsMaxMessage   = 64 * 1024
)

// 消息类型
const (
	wsTypeQuestion  = "question"
	wsTypeCompleted = "completed"
	wsTypeError     = "error"
	wsTypeAnswer    = "answer"
	wsTypePing      = "ping"
	wsTypePong      = "pong"
)

// craftMessage is the envelope for both directions of the craft socket.
type craftMessage struct {
	Type      string               `json:"type"`
	Answer    string               `json:"answer,omitempty"`
	Session   *models.CraftSession `json:"session,omitempty"`
	Code      string               `json:"code,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp string               `json:"timestamp,omitempty"`
}

// craftConn serializes writes; gorilla connections allow one writer.
type craftConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (cc *craftConn) write(messageType int, data []byte) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return cc.conn.WriteMessage(messageType, data)
}

func (cc *craftConn) send(msg craftMessage) error {
	msg.Timestamp = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return cc.write(websocket.TextMessage, data)
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(h.allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// CraftWebSocket runs one funnel-craft conversation over a WebSocket. The
// server sends the pending question, the client answers, and after the
// ninth answer the server sends the completed session and closes.
func (h *Handler) CraftWebSocket(c *gin.Context) {
	accountID := c.Param("id")
	author := c.Query("author_name")
	if author == "" {
		author = h.storedAuthor(c)
	}

	sess, err := h.Crafts.StartSession(accountID, author)
	if err != nil {
		h.rh.ErrorFrom(c, err)
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("❌ craft WebSocket 升级失败", map[string]interface{}{
			"account_id": accountID,
			"error":      err.Error(),
		})
		return
	}
	defer conn.Close()

	utils.GetLogger().Info("✅ craft WebSocket connected", map[string]interface{}{
		"account_id": accountID,
		"session_id": sess.ID,
	})

	cc := &craftConn{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(cc, done)

	if err := cc.send(craftMessage{Type: wsTypeQuestion, Session: sess}); err != nil {
		return
	}
	h.craftReadLoop(c, cc, accountID, sess.ID)
}

func (h *Handler) pingLoop(cc *craftConn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) craftReadLoop(c *gin.Context, cc *craftConn, accountID, sessionID string) {
	conn := cc.conn
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.GetLogger().Warn("craft WebSocket read error", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg craftMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			cc.send(craftMessage{Type: wsTypeError, Code: ErrorBadRequest, Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case wsTypePing:
			cc.send(craftMessage{Type: wsTypePong})
		case wsTypeAnswer:
			sess, err := h.Crafts.SubmitAnswer(c.Request.Context(), accountID, sessionID, msg.Answer)
			if err != nil {
				cc.send(craftMessage{Type: wsTypeError, Code: codeFor(err), Error: sanitizeErrorMessage(messageFor(err))})
				continue
			}
			if sess.Status == models.CraftSessionCompleted {
				cc.send(craftMessage{Type: wsTypeCompleted, Session: sess})
				cc.write(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "craft complete"))
				return
			}
			cc.send(craftMessage{Type: wsTypeQuestion, Session: sess})
		default:
			cc.send(craftMessage{Type: wsTypeError, Code: ErrorBadRequest, Error: "unknown message type"})
		}
	}
}
