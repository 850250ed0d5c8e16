// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/yaw_ranger/internal/config"
	"github.com/relabs-tech/yaw_ranger/internal/fusion"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// latest keeps the last message seen and fans it out to websocket clients.
type latest struct {
	mu      sync.RWMutex
	msg     fusion.Message
	haveMsg bool

	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan fusion.Message
}

func newLatest() *latest {
	return &latest{clients: make(map[*wsClient]struct{})}
}

func (l *latest) update(m fusion.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = m
	l.haveMsg = true
	for c := range l.clients {
		select {
		case c.send <- m:
		default:
			// slow client, skip this record
		}
	}
}

func (l *latest) get() (fusion.Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.msg, l.haveMsg
}

func (l *latest) handleAPI(w http.ResponseWriter, r *http.Request) {
	m, ok := l.get()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (l *latest) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan fusion.Message, 16)}

	l.mu.Lock()
	l.clients[c] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.clients, c)
		l.mu.Unlock()
		conn.Close()
	}()

	// Reader goroutine only notices the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	if m, ok := l.get(); ok {
		if err := conn.WriteJSON(m); err != nil {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case m := <-c.send:
			if err := conn.WriteJSON(m); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		}
	}
}

// newWebMux builds the HTTP routes around l.
func newWebMux(l *latest) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/fusion", l.handleAPI)
	mux.HandleFunc("/ws", l.handleWS)
	return mux
}

// RunWeb subscribes to the fusion topic and serves the latest record as
// JSON plus a websocket stream of every record.
func RunWeb(cfg *config.Config) error {
	l := newLatest()

	client, err := connectMQTT(cfg.MQTTBroker, clientID(cfg.MQTTClientIDWeb, "web"))
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeMessages(client, cfg.TopicFusion, "web", l.update); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, newWebMux(l))
}
