// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package preview

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wavetermdev/undertow/engine"
	"github.com/wavetermdev/undertow/host"
	"github.com/wavetermdev/undertow/state"
	"golang.org/x/net/html"
)

func setupServer(t *testing.T) (*Server, *state.Model[int], *httptest.Server) {
	t.Helper()
	surface, err := host.ParseSurface(`<div id="app"></div>`)
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	srv := MakeServer(surface, "app")
	count := state.MakeModel(0)
	comp, err := engine.NewComponent(engine.ComponentOpts{
		TargetId: "app",
		Surface:  surface,
		Models:   []any{count},
		OnRender: srv.OnRender,
		Render: func() any {
			return fmt.Sprintf(`<div><button class="inc">+</button><span>%d</span></div>`, count.Get())
		},
	})
	if err != nil {
		t.Fatalf("component: %v", err)
	}
	comp.AddListener("click", ".inc", func(*host.Event, *html.Node) {
		count.Update(func(n int) int { return n + 1 })
	})
	srv.Attach(comp)
	srv.Do(func() {
		err = comp.Start()
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, count, ts
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestLiveAndSnapshot(t *testing.T) {
	_, _, ts := setupServer(t)
	code, body := httpGet(t, ts.URL+"/")
	if code != http.StatusOK || body != `<div id="app"><button class="inc">+</button><span>0</span></div>` {
		t.Fatalf("live: %d %s", code, body)
	}
	code, body = httpGet(t, ts.URL+"/snapshot")
	if code != http.StatusOK || !strings.Contains(body, "data-vtag") {
		t.Fatalf("snapshot: %d %s", code, body)
	}
}

func TestDispatch(t *testing.T) {
	srv, count, ts := setupServer(t)
	resp, err := http.Post(ts.URL+"/dispatch?type=click&selector=.inc", "text/plain", nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("dispatch status %d", resp.StatusCode)
	}
	var val int
	srv.Do(func() { val = count.Get() })
	if val != 1 {
		t.Fatalf("listener did not run, count=%d", val)
	}
	resp, _ = http.Post(ts.URL+"/dispatch?type=click&selector=.missing", "text/plain", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPatchStream(t *testing.T) {
	srv, count, ts := setupServer(t)
	wsUrl := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if srv.NumSubscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", srv.NumSubscribers())
	}
	srv.Do(func() { count.Set(7) })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg RenderMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != "render" {
			continue
		}
		if msg.First || len(msg.Patches) != 1 || msg.Patches[0].Mode != engine.PatchNodeValue || msg.Patches[0].Markup != "7" {
			t.Fatalf("unexpected render message: %s", message)
		}
		if msg.Patches[0].TargetPath != "1/0" {
			t.Fatalf("target path %q", msg.Patches[0].TargetPath)
		}
		return
	}
}
