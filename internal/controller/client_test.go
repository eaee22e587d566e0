// client_test.go - Tests for the remote controller HTTP client
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motion-console/backend/internal/models"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 2*time.Second), srv
}

func TestGetState(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/state", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current": {"position": {"x": 10.5, "y": 20, "z": 3}},
			"coils": {"machine_on": true, "pump_on": null}
		}`))
	}))
	defer srv.Close()

	snap, err := client.GetState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.5, snap.Current.Position.X)
	assert.Equal(t, models.CoilOn, snap.CoilStateOf("machine_on"))
	assert.Equal(t, models.CoilUnknown, snap.CoilStateOf("pump_on"))
}

func TestGetBounds_MergesPartialResponse(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"x_max": 1200}`))
	}))
	defer srv.Close()

	b, err := client.GetBounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1200.0, b.XMax)
	assert.Equal(t, 2000.0, b.YMax, "absent fields keep defaults")
}

func TestGetBounds_FailureReturnsDefaults(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	b, err := client.GetBounds(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.DefaultBounds(), b)
}

func TestStatusError_CarriesControllerText(t *testing.T) {
	t.Run("json error body", func(t *testing.T) {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error": "轴未就绪"}`))
		}))
		defer srv.Close()

		err := client.StopRun(context.Background())
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
		assert.Equal(t, "轴未就绪", statusErr.Body)
		assert.Equal(t, "轴未就绪", err.Error())
	})

	t.Run("plain text body", func(t *testing.T) {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream timeout\n"))
		}))
		defer srv.Close()

		err := client.StopRun(context.Background())
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "upstream timeout", statusErr.Body)
	})

	t.Run("empty body falls back to status", func(t *testing.T) {
		client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		err := client.StopRun(context.Background())
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, "controller returned status 404", err.Error())
	})
}

func TestPulseCoil_SendsPulseFlag(t *testing.T) {
	var got map[string]any
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/coil", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, client.PulseCoil(context.Background(), "pump_on"))
	assert.Equal(t, "pump_on", got["action"])
	assert.Equal(t, true, got["pulse"])
}

func TestStartRun_SendsRouteDocument(t *testing.T) {
	var got struct {
		Route *models.Route `json:"route"`
	}
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/autorun/start", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	route := &models.Route{Name: "field-a", Dwell: 2, Points: []models.RoutePoint{{X: 1, Y: 2}}}
	require.NoError(t, client.StartRun(context.Background(), route))
	require.NotNil(t, got.Route)
	assert.Equal(t, "field-a", got.Route.Name)
	assert.Len(t, got.Route.Points, 1)
}

func TestSetPause(t *testing.T) {
	var got map[string]any
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	require.NoError(t, client.SetPause(context.Background(), true))
	assert.Equal(t, true, got["pause"])
}

func TestGetRunState(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"running": true, "paused": false, "route": "r1", "index": 3, "total": 10}`))
	}))
	defer srv.Close()

	state, err := client.GetRunState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RunState{Running: true, Route: "r1", Index: 3, Total: 10}, state)
}

func TestUnreachableController(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond)

	_, err := client.GetState(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr), "transport failures are not status errors")
}
