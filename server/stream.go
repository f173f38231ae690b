package server

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 5 * time.Second
	readWait  = 60 * time.Second
)

// handleStream upgrades to a websocket where every text message is a
// stepRequest answered by a stepResponse or an errorResponse
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.get(id)
	if err != nil {
		abort(c, err)
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[SERVER] [ERROR] upgrading %s: %v", id, err)
		return
	}
	defer conn.Close()
	log.Printf("[SERVER] [INFO] streaming env %s", id)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[SERVER] [ERROR] reading %s: %v", id, err)
			}
			return
		}

		var out any
		req := stepRequest{}
		if err := json.Unmarshal(msg, &req); err != nil {
			out = errorResponse{Error: "failed to unmarshal request: " + err.Error()}
		} else if resp, err := sess.step(req); err != nil {
			out = errorResponse{Error: err.Error()}
		} else {
			out = resp
		}
		if err := writeJSON(conn, out); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		if !errors.Is(err, websocket.ErrCloseSent) {
			log.Printf("[SERVER] [ERROR] writing: %v", err)
		}
		return err
	}
	return nil
}
