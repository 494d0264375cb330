package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/finrisk/internal/contracts"
	"github.com/wonny/finrisk/pkg/logger"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func TestHub_BroadcastsAlerts(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	all := dial(t, srv, "")
	onlyTwo := dial(t, srv, "?company_id=2")
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, time.Second, 10*time.Millisecond)

	hub.PublishAlert(&contracts.RiskAlert{ID: 10, CompanyID: 1, AlertType: contracts.AlertPDIncrease, Severity: contracts.SeverityCritical})
	hub.PublishAlert(&contracts.RiskAlert{ID: 11, CompanyID: 2, AlertType: contracts.AlertCreditLimit, Severity: contracts.SeverityHigh})

	first := readEvent(t, all)
	assert.Equal(t, EventAlertCreated, first.Type)
	assert.Equal(t, int64(10), first.Alert.ID)
	assert.Equal(t, int64(11), readEvent(t, all).Alert.ID)

	// The filtered feed only sees company 2
	ev := readEvent(t, onlyTwo)
	assert.Equal(t, int64(11), ev.Alert.ID)
	assert.Equal(t, contracts.AlertCreditLimit, ev.Alert.AlertType)
}

func TestHub_RemovesClosedSubscribers(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Publishing with no subscribers is a no-op
	hub.PublishAlert(&contracts.RiskAlert{ID: 1})
}

func TestHub_InvalidCompanyFilter(t *testing.T) {
	hub := NewHub(logger.Nop())

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/alerts?company_id=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Subscribers())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestHub_FullQueueDropsEventKeepsClient(t *testing.T) {
	hub := NewHub(logger.Nop())
	slow := &client{send: make(chan []byte, 1)}
	hub.clients[slow] = struct{}{}

	hub.PublishAlert(&contracts.RiskAlert{ID: 1, CompanyID: 1})
	hub.PublishAlert(&contracts.RiskAlert{ID: 2, CompanyID: 1})

	assert.Equal(t, 1, hub.Subscribers(), "slow client stays registered")
	require.Len(t, slow.send, 1)

	var ev Event
	require.NoError(t, json.Unmarshal(<-slow.send, &ev))
	assert.Equal(t, int64(1), ev.Alert.ID, "the overflowing event is the one dropped")
}
