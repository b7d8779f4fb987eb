package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_RoomMetrics(t *testing.T) {
	m := NewMonitor("test")
	m.RoomOpened()
	m.RoomOpened()
	m.RoomClosed()
	m.CommandHandled("move-to")
	m.CommandHandled("move-to")
	m.PhaseEntered("number")
	m.Eliminated("combat")
	m.GameOver("ended_by_host")
	m.TickObserved(3 * time.Millisecond)

	if got := testutil.ToFloat64(m.Metrics().ActiveRooms); got != 1 {
		t.Errorf("Expected 1 active room, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().CommandsHandled.WithLabelValues("move-to")); got != 2 {
		t.Errorf("Expected 2 move-to commands, got %v", got)
	}
	if got := testutil.ToFloat64(m.Metrics().Eliminations.WithLabelValues("combat")); got != 1 {
		t.Errorf("Expected 1 combat elimination, got %v", got)
	}
	if got := testutil.CollectAndCount(m.Metrics().TickLatency); got != 1 {
		t.Errorf("Expected the tick histogram collected, got %d series", got)
	}
}

func TestMonitor_ConnectionsAndRequests(t *testing.T) {
	m := NewMonitor("test")
	m.IncConnections()
	m.IncConnections()
	m.DecConnections()
	m.IncMessagesReceived()
	m.MessageDropped("rate_limited")

	if got := testutil.ToFloat64(m.Metrics().OnlineConnections); got != 1 {
		t.Errorf("Expected 1 connection, got %v", got)
	}
	if m.Requests() != 1 {
		t.Errorf("Expected 1 request, got %d", m.Requests())
	}
	if got := testutil.ToFloat64(m.Metrics().MessagesDropped.WithLabelValues("rate_limited")); got != 1 {
		t.Errorf("Expected 1 dropped message, got %v", got)
	}
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("intersplice")
	m.RoomOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "intersplice_active_rooms 1") {
		t.Error("Expected the active rooms gauge in the exposition")
	}
}
