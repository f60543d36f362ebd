package main

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// serveWS streams status messages for one session. Clients may send
// {"type":"request_status"} to get a fresh snapshot.
func serveWS(hub *Hub, session *Session, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.WithContext(r.Context()).Errorf("[backend] websocket upgrade failed: %v", err)
		return
	}
	client := &Client{hub: hub, sessionID: session.ID(), send: make(chan []byte, 16)}
	hub.Register(client)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(session.Status())})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			logx.Debugf("[backend] websocket writer for %s stopped: %v", session.ID(), err)
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := sonic.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(session.Status())})
		}
	}
}
