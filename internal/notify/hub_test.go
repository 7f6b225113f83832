package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"diamondhost/admin-console/internal/model"
)

func quietHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcastFiltersByRole(t *testing.T) {
	hub := quietHub()
	admin := NewClient("a", "s1", model.RoleAdmin)
	plain := NewClient("p", "s2", model.RoleNone)
	hub.Register(admin)
	hub.Register(plain)

	hub.Broadcast(Event{Type: EventNewEstates, Items: []string{"e1"}}, model.RoleAdmin, model.RoleSuperAdmin)

	select {
	case payload := <-admin.Send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil || event.Type != EventNewEstates {
			t.Fatalf("unexpected payload %s (%v)", payload, err)
		}
	default:
		t.Fatalf("expected admin to receive the event")
	}
	select {
	case <-plain.Send:
		t.Fatalf("plain user must not receive admin events")
	default:
	}
}

func TestNotifyTargetsSessionAndDropsWhenFull(t *testing.T) {
	hub := quietHub()
	target := NewClient("c1", "s1", model.RoleAdmin)
	other := NewClient("c2", "s2", model.RoleAdmin)
	hub.Register(target)
	hub.Register(other)

	for i := 0; i < cap(target.Send)+5; i++ {
		hub.SessionEnded("s1", "expired")
	}
	if len(target.Send) != cap(target.Send) {
		t.Fatalf("expected full buffer, got %d", len(target.Send))
	}
	if len(other.Send) != 0 {
		t.Fatalf("expected other session untouched")
	}

	hub.Unregister(target)
	hub.Unregister(target)
	if hub.Len() != 1 {
		t.Fatalf("expected one client left, got %d", hub.Len())
	}
}

func TestServeStreamsEvents(t *testing.T) {
	hub := quietHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(Upgrader(nil), w, r, "s1", model.RoleAdmin)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.Notify("s1", Event{Type: EventNewPosts})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read: %v", err)
	}
	if event.Type != EventNewPosts {
		t.Fatalf("unexpected event %+v", event)
	}
}
