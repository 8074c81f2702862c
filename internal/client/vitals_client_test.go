package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wisefido-vitals/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *VitalsClient {
	t.Helper()
	mux := http.NewServeMux()
	for p, h := range routes {
		mux.HandleFunc(p, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewVitalsClient(srv.URL, time.Second, zap.NewNop())
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Vitals-Source", "live")
		_, _ = w.Write([]byte(body))
	}
}

func TestGetReading(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/vitals/reading": jsonBody(`{"ecg":-5,"ppg_red":100,"ppg_ir":200,"heart_rate":72,"SpO2_val":98,"SCD_status":"On Skin","temperature":37}`),
	})

	r, source, err := c.GetReading(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live", source)
	assert.Equal(t, int32(-5), r.ECG)
	assert.Equal(t, uint32(200), r.PPGIR)
	assert.Equal(t, uint8(72), r.HeartRate)
	assert.Equal(t, uint8(98), r.SpO2)
	assert.Equal(t, models.OnSkin, r.SkinContact)
}

func TestGetReading_Cleared(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/vitals/reading": jsonBody(`{"status":"cleared","message":"All values and graphs cleared."}`),
	})

	_, _, err := c.GetReading(context.Background())
	assert.ErrorIs(t, err, ErrCleared)
}

func TestGetReading_NoData(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/vitals/reading": jsonBody(`{"error":"Recorded dataset is empty."}`),
	})

	_, _, err := c.GetReading(context.Background())
	require.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, err.Error(), "Recorded dataset is empty.")
}

func TestModeChangesAndStatus(t *testing.T) {
	var calls []string
	ack := func(status string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, r.Method+" "+r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
		}
	}
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/vitals/mode/live":     ack("live_data_enabled"),
		"/api/v1/vitals/mode/pause":    ack("cleared"),
		"/api/v1/vitals/mode/recorded": ack("csv_data_enabled"),
		"/api/v1/vitals/status":        jsonBody(`{"connected":true}`),
	})
	ctx := context.Background()

	status, err := c.EnableLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "live_data_enabled", status)

	status, err = c.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cleared", status)

	status, err = c.SelectRecorded(ctx)
	require.NoError(t, err)
	assert.Equal(t, "csv_data_enabled", status)

	connected, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, connected)

	assert.Equal(t, []string{
		"POST /api/v1/vitals/mode/live",
		"POST /api/v1/vitals/mode/pause",
		"POST /api/v1/vitals/mode/recorded",
	}, calls)
}

func TestModeChange_ServerError(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/vitals/mode/live": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
		},
	})

	_, err := c.EnableLive(context.Background())
	assert.Error(t, err)
}
