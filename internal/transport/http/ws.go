package http

import (
	"log"
	"net/http"

	"railprep/internal/domain"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams progress snapshots to the UI. The client receives the
// current record on connect and a fresh snapshot after every save, so page
// components never keep their own copy of the progress state.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.store.Watch()
	defer cancel()

	initial := h.service.Progress(r.Context())
	if err := conn.WriteJSON(outboundMessage[domain.UserProgress]{Type: "progress", Payload: initial}); err != nil {
		return
	}

	// The reader goroutine exists only to notice the peer going away.
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
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.UserProgress]{Type: "progress", Payload: snapshot}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
