// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package preview

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsReadWaitTimeout = 15 * time.Second
const wsWriteWaitTimeout = 10 * time.Second
const wsPingPeriodTickTime = 10 * time.Second

var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:   4 * 1024,
	WriteBufferSize:  32 * 1024,
	HandshakeTimeout: 1 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

func (s *Server) HandleWs(w http.ResponseWriter, r *http.Request) {
	err := s.handleWsInternal(w, r)
	if err != nil {
		log.Printf("[preview] websocket error: %v\n", err)
	}
}

func (s *Server) handleWsInternal(w http.ResponseWriter, r *http.Request) error {
	wsConnId := uuid.New().String()
	outputCh := make(chan any, 100)
	closeCh := make(chan any)
	// registered before the handshake completes so no render is missed
	s.register(wsConnId, outputCh)
	defer s.unregister(wsConnId)
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %v", err)
	}
	defer conn.Close()
	log.Printf("[preview] new websocket connection: connid:%s\n", wsConnId)
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		readLoop(conn, closeCh)
	}()
	go func() {
		defer wg.Done()
		writeLoop(conn, outputCh, closeCh)
	}()
	wg.Wait()
	return nil
}

// subscribers only send pings; anything else is ignored
func readLoop(conn *websocket.Conn, closeCh chan any) {
	defer close(closeCh)
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(wsReadWaitTimeout))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadWaitTimeout))
		var jmsg map[string]any
		if err := json.Unmarshal(message, &jmsg); err != nil {
			log.Printf("[preview] bad websocket message: %v\n", err)
		}
	}
}

func writePing(conn *websocket.Conn) error {
	pingMessage := map[string]any{"type": "ping", "stime": time.Now().UnixMilli()}
	jsonVal, _ := json.Marshal(pingMessage)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout))
	return conn.WriteMessage(websocket.TextMessage, jsonVal)
}

func writeLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any) {
	ticker := time.NewTicker(wsPingPeriodTickTime)
	defer ticker.Stop()
	for {
		select {
		case msg := <-outputCh:
			barr, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[preview] cannot marshal websocket message: %v\n", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, barr); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := writePing(conn); err != nil {
				return
			}
		case <-closeCh:
			return
		}
	}
}
