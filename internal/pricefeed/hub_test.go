package pricefeed

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Update{
		Event:     "priceUpdate",
		Timestamp: time.Now().UTC(),
		Data:      []Kline{{Close: decimal.NewFromInt(150)}},
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Update
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "priceUpdate", got.Event)
	require.Len(t, got.Data, 1)
	require.True(t, got.Data[0].Close.Equal(decimal.NewFromInt(150)))
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
