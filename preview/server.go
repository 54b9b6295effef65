// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package preview serves a live surface over HTTP and streams every render's
// patches to websocket subscribers.
package preview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/wavetermdev/undertow/engine"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/util"
	"github.com/wavetermdev/undertow/vdom"
)

const HttpReadTimeout = 10 * time.Second
const HttpWriteTimeout = 10 * time.Second
const HttpMaxHeaderBytes = 60000

const ContentTypeHeaderKey = "Content-Type"
const ContentTypeHtml = "text/html; charset=utf-8"
const ContentTypeText = "text/plain; charset=utf-8"

type RenderMessage struct {
	Type      string             `json:"type"`
	Seq       int                `json:"seq"`
	TargetId  string             `json:"targetid"`
	First     bool               `json:"first,omitempty"`
	Mutations int                `json:"mutations"`
	Patches   []engine.WirePatch `json:"patches"`
}

// Server owns the surface while it runs: components must only be touched
// through Do, which serializes them against HTTP handlers.
type Server struct {
	lock    *sync.Mutex
	surface *host.Surface
	rootId  string
	comp    *engine.Component
	seq     int

	subsLock *sync.Mutex
	subs     map[string]chan any
}

func MakeServer(surface *host.Surface, rootId string) *Server {
	return &Server{
		lock:     &sync.Mutex{},
		surface:  surface,
		rootId:   rootId,
		subsLock: &sync.Mutex{},
		subs:     make(map[string]chan any),
	}
}

// Attach sets the component whose snapshot /snapshot shows.
func (s *Server) Attach(comp *engine.Component) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.comp = comp
}

// Do runs fn with exclusive access to the surface and its components.
func (s *Server) Do(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	fn()
}

// OnRender is meant for ComponentOpts.OnRender. It runs inside Do.
func (s *Server) OnRender(stats engine.RenderStats) {
	s.seq++
	msg := RenderMessage{
		Type:      "render",
		Seq:       s.seq,
		TargetId:  stats.TargetId,
		First:     stats.First,
		Mutations: stats.Mutations,
		Patches:   stats.Wire,
	}
	if msg.Patches == nil {
		msg.Patches = []engine.WirePatch{}
	}
	s.broadcast(msg)
}

func (s *Server) broadcast(msg any) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	for connId, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			log.Printf("[preview] subscriber %s is not keeping up, dropping message\n", connId)
		}
	}
}

func (s *Server) register(connId string, ch chan any) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	s.subs[connId] = ch
}

func (s *Server) unregister(connId string) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	delete(s.subs, connId)
}

func (s *Server) NumSubscribers() int {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	return len(s.subs)
}

func webFnWrap(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			panicErr := util.PanicHandler("preview:"+r.URL.Path, recover())
			if panicErr != nil {
				http.Error(w, panicErr.Error(), http.StatusInternalServerError)
			}
		}()
		fn(w, r)
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	var markup string
	s.Do(func() {
		markup = s.surface.Render(s.surface.GetElementById(s.rootId))
	})
	w.Header().Set(ContentTypeHeaderKey, ContentTypeHtml)
	w.Write([]byte(markup))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var markup string
	s.Do(func() {
		if s.comp == nil || s.comp.Snapshot() == nil {
			return
		}
		markup = vdom.Render(s.comp.Snapshot(), &vdom.RenderOpts{WithKeys: true})
	})
	if markup == "" {
		http.Error(w, "nothing rendered yet", http.StatusNotFound)
		return
	}
	w.Header().Set(ContentTypeHeaderKey, ContentTypeText)
	w.Write([]byte(markup))
}

// handleDispatch fires an event at the first element matching the selector.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	selector := r.URL.Query().Get("selector")
	eventType := r.URL.Query().Get("type")
	if selector == "" || eventType == "" {
		http.Error(w, "selector and type are required", http.StatusBadRequest)
		return
	}
	var err error
	found := false
	s.Do(func() {
		root := s.surface.GetElementById(s.rootId)
		if root == nil {
			return
		}
		target, qerr := s.surface.QuerySelector(root, selector)
		if qerr != nil {
			err = qerr
			return
		}
		if target != nil {
			found = true
			s.surface.Dispatch(target, eventType, nil)
		}
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("bad selector: %v", err), http.StatusBadRequest)
		return
	}
	if !found {
		http.Error(w, "no element matches "+selector, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Router() *mux.Router {
	gr := mux.NewRouter()
	gr.HandleFunc("/", webFnWrap(s.handleLive)).Methods(http.MethodGet)
	gr.HandleFunc("/snapshot", webFnWrap(s.handleSnapshot)).Methods(http.MethodGet)
	gr.HandleFunc("/dispatch", webFnWrap(s.handleDispatch)).Methods(http.MethodPost)
	gr.HandleFunc("/ws", s.HandleWs)
	return gr
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		ReadTimeout:    HttpReadTimeout,
		WriteTimeout:   HttpWriteTimeout,
		MaxHeaderBytes: HttpMaxHeaderBytes,
		Handler:        s.Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelFn := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancelFn()
		server.Shutdown(shutdownCtx)
	}()
	log.Printf("[preview] serving on %s\n", listener.Addr())
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
