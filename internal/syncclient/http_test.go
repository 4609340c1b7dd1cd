package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
)

func TestParseSSE(t *testing.T) {
	input := strings.Join([]string{
		": heartbeat",
		"",
		"id: e-1",
		"event: slot",
		"data: {\"a\":",
		"data: 1}",
		"",
		"retry: 1000",
		"event: resync",
		"",
		"",
	}, "\n")

	var got []sseMessage
	err := parseSSE(strings.NewReader(input), func(msg sseMessage) error {
		got = append(got, msg)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sseMessage{id: "e-1", event: "slot", data: "{\"a\":\n1}"}, got[0])
	assert.Equal(t, "resync", got[1].event)
}

func TestParseSSE_DropsUnterminatedMessage(t *testing.T) {
	input := "event: slot\ndata: {}\n\nevent: slot\ndata: {\"cut\":"

	var got []sseMessage
	err := parseSSE(strings.NewReader(input), func(msg sseMessage) error {
		got = append(got, msg)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "{}", got[0].data)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/layouts/7/slots", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.SlotListResponse{
			LayoutID: 7,
			Slots: []models.SlotResponse{
				{ID: 1, LayoutID: 7, Label: "B-1", VehicleType: "Bike", Status: "available", Version: 1},
			},
		})
	})
	mux.HandleFunc("/api/v1/layouts/7/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)

		bookingID := int64(5)
		data, _ := json.Marshal(domain.SlotChangeEvent{ID: "e-1", LayoutID: 7, SlotID: 1, Status: domain.SlotOccupied, BookingID: &bookingID, Version: 2})
		fmt.Fprintf(w, ": ping\n\nid: e-1\nevent: slot\ndata: %s\n\n", data)
		fmt.Fprint(w, "event: resync\ndata: {}\n\n")
	})
	mux.HandleFunc("/api/v1/layouts/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSource_Snapshot(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL+"/", time.Second, WithBearerToken("token-1"))

	slots, err := src.Snapshot(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "B-1", slots[0].Label)
	assert.Equal(t, domain.SlotAvailable, slots[0].Status)

	_, err = src.Snapshot(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
	assert.ErrorIs(t, err, domain.ErrLayoutNotFound)
}

func TestHTTPSource_Stream(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL, time.Second)

	stream, err := src.Subscribe(context.Background(), 7)
	require.NoError(t, err)
	defer stream.Close()

	select {
	case ev := <-stream.Events():
		assert.Equal(t, int64(1), ev.SlotID)
		assert.Equal(t, domain.SlotOccupied, ev.Status)
		require.NotNil(t, ev.BookingID)
		assert.Equal(t, int64(5), *ev.BookingID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}

	select {
	case _, ok := <-stream.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed")
	}
	assert.ErrorIs(t, stream.Err(), ErrResync)
}

func TestHTTPSource_SubscribeUnknownLayout(t *testing.T) {
	srv := newTestServer(t)
	src := NewHTTPSource(srv.URL, time.Second)

	_, err := src.Subscribe(context.Background(), 99)
	assert.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestHTTPSource_IdleStreamFails(t *testing.T) {
	const pings = 5

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/layouts/7/events", func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_ = rc.Flush()

		for i := 0; i < pings; i++ {
			time.Sleep(20 * time.Millisecond)
			fmt.Fprint(w, ": ping\n\n")
			_ = rc.Flush()
		}

		// соединение живо, но сервер замолчал
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	src := NewHTTPSource(srv.URL, time.Second, WithIdleTimeout(60*time.Millisecond))

	stream, err := src.Subscribe(context.Background(), 7)
	require.NoError(t, err)
	defer stream.Close()

	select {
	case <-stream.Events():
		t.Fatal("heartbeats must keep the stream open")
	case <-time.After(80 * time.Millisecond):
	}

	select {
	case _, ok := <-stream.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("idle stream was not closed")
	}
	assert.ErrorIs(t, stream.Err(), ErrStreamIdle)
}
