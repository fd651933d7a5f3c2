package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"savor/internal/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// wsConnection carries one conversation over a websocket. Each connection
// owns its session; the read pump processes turns one at a time, the write
// pump drains replies and keeps the connection alive.
type wsConnection struct {
	conn    *websocket.Conn
	send    chan []byte
	session *agent.Session
	server  *Server
}

type wsInbound struct {
	Message string `json:"message"`
}

type wsOutbound struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	State     string `json:"state"`
}

// handleWebSocket upgrades the connection and starts a fresh conversation
// on it.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ws := &wsConnection{
		conn:    conn,
		send:    make(chan []byte, 16),
		session: agent.NewSession(uuid.NewString(), agent.DefaultUserID),
		server:  s,
	}

	go ws.writePump()
	go ws.readPump()
}

func (ws *wsConnection) readPump() {
	defer func() {
		close(ws.send)
		ws.conn.Close()
	}()

	ws.conn.SetReadLimit(64 * 1024)
	ws.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.server.log.Warn("websocket error", zap.Error(err))
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(raw, &in); err != nil || in.Message == "" {
			continue
		}

		reply := ws.server.agent.HandleMessage(context.Background(), ws.session, in.Message)
		out, err := json.Marshal(wsOutbound{
			SessionID: ws.session.ID,
			Reply:     reply,
			State:     string(ws.session.State),
		})
		if err != nil {
			continue
		}
		ws.send <- out
	}
}

func (ws *wsConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		ws.conn.Close()
	}()

	for {
		select {
		case message, ok := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
