package adminclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLiveSyncInvalidatesCache(t *testing.T) {
	upgrader := websocket.Upgrader{}
	release := make(chan struct{})
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/realtime" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(message{Type: messageStatus, Status: ChannelSubscribed})
		<-release
		conn.WriteJSON(message{
			Type:  messageChange,
			Event: &ChangeEvent{Table: "orders", Type: "UPDATE", RecordID: "o1"},
		})
		// Hold the connection until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	client := New(srv.URL, nil, testLogger())
	client.SetToken("tok-1")
	qc := NewQueryCache(time.Minute)
	qc.Set("/api/orders", []byte("{}"), tableOrders)
	qc.Set("/api/products", []byte("[]"), tableProducts)

	ls := NewLiveSync(client, qc)
	events := make(chan *ChangeEvent, 1)
	ls.OnEvent(func(ev *ChangeEvent) { events <- ev })

	if ls.Status() != LabelOffline {
		t.Fatalf("expected offline before start, got %q", ls.Status())
	}
	if err := ls.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "SUBSCRIBED", ls.Subscribed)
	if ls.Status() != LabelLive || auth != "Bearer tok-1" {
		t.Fatalf("status=%q auth=%q", ls.Status(), auth)
	}

	close(release)
	select {
	case ev := <-events:
		if ev.Table != "orders" || ev.RecordID != "o1" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event delivered")
	}
	if _, ok := qc.Get("/api/orders"); ok {
		t.Error("orders query should be invalidated")
	}
	if _, ok := qc.Get("/api/products"); !ok {
		t.Error("products query should survive an orders change")
	}

	ls.Stop()
	if ls.Status() != LabelOffline || ls.ChannelStatus() != ChannelClosed {
		t.Fatalf("after stop: %q / %q", ls.Status(), ls.ChannelStatus())
	}
}

func TestLiveSyncConnectionLost(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteJSON(message{Type: messageStatus, Status: ChannelSubscribed})
		conn.Close()
	}))
	defer srv.Close()

	ls := NewLiveSync(New(srv.URL, nil, testLogger()), nil)
	if err := ls.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "CHANNEL_ERROR", func() bool { return ls.ChannelStatus() == ChannelError })
	if ls.Status() != LabelOffline {
		t.Fatal("lost connection should show offline")
	}
}

func TestLiveSyncDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Authorization header required"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	ls := NewLiveSync(New(srv.URL, nil, testLogger()), nil)
	if err := ls.Start(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if ls.ChannelStatus() != ChannelError {
		t.Fatalf("expected CHANNEL_ERROR, got %q", ls.ChannelStatus())
	}
}

func TestLiveSyncEndpoint(t *testing.T) {
	ls := NewLiveSync(New("https://admin.shop.test/base/", nil, testLogger()), nil)
	got, err := ls.endpoint()
	if err != nil || got != "wss://admin.shop.test/base/api/realtime" {
		t.Fatalf("endpoint = %q, %v", got, err)
	}
}
