package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dialBroadcaster(t *testing.T, interval time.Duration) *websocket.Conn {
	t.Helper()
	p := NewProvider(&fakeStats{cpu: 7, memUsed: 1, memTotal: 4, dskUsed: 1, dskTotal: 4}, zerolog.Nop())
	srv := httptest.NewServer(NewBroadcaster(p, interval, zerolog.Nop()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestFirstFrameArrivesImmediately(t *testing.T) {
	// long interval: the first frame cannot come from the ticker
	conn := dialBroadcaster(t, time.Minute)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var f Frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("no immediate frame: %v", err)
	}
	if f.Type != "stats" || f.Data.CPUPercent != 7 {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestFramesFollowInterval(t *testing.T) {
	conn := dialBroadcaster(t, 50*time.Millisecond)
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	for i := 0; i < 3; i++ {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.Type != "stats" {
			t.Fatalf("frame %d type: %q", i, f.Type)
		}
	}
}

func TestDisconnectStopsStream(t *testing.T) {
	p := NewProvider(&fakeStats{memTotal: 1, dskTotal: 1}, zerolog.Nop())
	srv := httptest.NewServer(NewBroadcaster(p, 20*time.Millisecond, zerolog.Nop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	// give the server side time to observe the close; the test passes when
	// nothing panics and the handler goroutine unwinds
	time.Sleep(100 * time.Millisecond)
}

func TestSubscribersAreIndependent(t *testing.T) {
	p := NewProvider(&fakeStats{memTotal: 1, dskTotal: 1}, zerolog.Nop())
	srv := httptest.NewServer(NewBroadcaster(p, 30*time.Millisecond, zerolog.Nop()))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	_ = first.Close()

	// the surviving subscriber keeps receiving after the other disconnects
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		var f Frame
		if err := second.ReadJSON(&f); err != nil {
			t.Fatalf("second subscriber frame %d: %v", i, err)
		}
	}
}
