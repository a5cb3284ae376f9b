package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type chatWSOutbound struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   string `json:"content,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleChatWS runs an interactive chat over a websocket. Turns are
// processed in arrival order on the connection; each inbound message
// blocks until its reply, mirroring the synchronous turn model.
func (h *Handler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("chat ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	session, ok := h.store.Get(sessionID)
	if !ok {
		session = h.store.Create()
	}

	conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(chatWSPingEvery)
		defer ping.Stop()
		for {
			select {
			case out, open := <-writeCh:
				if !open {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait))
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	writeCh <- chatWSOutbound{
		Type:      "connected",
		SessionID: session.ID,
		Role:      "assistant",
		Content:   h.controller.Greeting(),
	}

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			break
		}
		if in.Type != "message" || strings.TrimSpace(in.Text) == "" {
			writeCh <- chatWSOutbound{Type: "error", Message: "expected {type: message, text: ...}"}
			continue
		}
		reply := h.controller.ProcessTurn(r.Context(), session, strings.TrimSpace(in.Text))
		writeCh <- chatWSOutbound{
			Type:      "reply",
			SessionID: session.ID,
			Role:      "assistant",
			Content:   reply,
			ImageURL:  extractImageURL(reply),
		}
	}

	close(writeCh)
	<-done
}
