package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"otter/model"
)

// fakeController : 제어 표면 mock
type fakeController struct {
	started   bool
	startTime time.Time
	speed     float64
	state     *SimulationState
	err       error
}

func (f *fakeController) StartSimulation(ctx context.Context, start time.Time, speed float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.started = true
	f.startTime = start
	f.speed = speed
	return "sim-test", nil
}

func (f *fakeController) PauseSimulation() error  { return f.err }
func (f *fakeController) ResumeSimulation() error { return f.err }
func (f *fakeController) StopSimulation() error   { return f.err }
func (f *fakeController) SetSpeed(speed float64) error {
	f.speed = speed
	return f.err
}

func (f *fakeController) SimulationState() (SimulationState, bool) {
	if f.state == nil {
		return SimulationState{}, false
	}
	return *f.state, true
}

func (f *fakeController) DateRange(ctx context.Context) (model.DateRange, error) {
	return model.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}, f.err
}

func doRequest(t *testing.T, ws *WebServer, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ws.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope
}

func TestStartSimulation(t *testing.T) {
	controller := &fakeController{}
	ws := NewWebServer(controller)

	status, envelope := doRequest(t, ws, http.MethodPost, "/api/simulation/start",
		map[string]any{"start_time": "2024-01-15T09:00:00", "speed": 2.0})

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, envelope["success"])
	require.Equal(t, "sim-test", envelope["data"].(map[string]any)["simulation_id"])
	require.True(t, controller.started)
	require.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), controller.startTime)
	require.Equal(t, 2.0, controller.speed)
}

func TestStartSimulationOmittedSpeedForwardedAsZero(t *testing.T) {
	// speed 생략은 0 그대로 컨트롤러에 전달. 기본값 결정은 컨트롤러 몫
	controller := &fakeController{}
	ws := NewWebServer(controller)

	status, _ := doRequest(t, ws, http.MethodPost, "/api/simulation/start",
		map[string]any{"start_time": "2024-01-15T09:00:00"})

	require.Equal(t, http.StatusOK, status)
	require.True(t, controller.started)
	require.Equal(t, 0.0, controller.speed)
}

func TestStartSimulationBadTime(t *testing.T) {
	ws := NewWebServer(&fakeController{})

	status, envelope := doRequest(t, ws, http.MethodPost, "/api/simulation/start",
		map[string]any{"start_time": "01/15/2024"})

	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, false, envelope["success"])
}

func TestStatusIdleWithoutSession(t *testing.T) {
	ws := NewWebServer(&fakeController{})

	status, envelope := doRequest(t, ws, http.MethodGet, "/api/simulation/status", nil)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "idle", envelope["data"].(map[string]any)["status"])
}

func TestStatusRunning(t *testing.T) {
	controller := &fakeController{state: &SimulationState{
		ID:          "sim-test",
		Status:      "running",
		CurrentTime: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Speed:       2.0,
	}}
	ws := NewWebServer(controller)

	status, envelope := doRequest(t, ws, http.MethodGet, "/api/simulation/status", nil)

	require.Equal(t, http.StatusOK, status)
	data := envelope["data"].(map[string]any)
	require.Equal(t, "running", data["status"])
	require.Equal(t, "2024-01-15T10:30:00", data["current_time"])
	require.Equal(t, 2.0, data["speed"])
}

func TestCurrentTimeWithoutSession(t *testing.T) {
	ws := NewWebServer(&fakeController{})

	status, envelope := doRequest(t, ws, http.MethodGet, "/api/simulation/current-time", nil)

	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, false, envelope["success"])
}

func TestSetSpeed(t *testing.T) {
	controller := &fakeController{}
	ws := NewWebServer(controller)

	status, _ := doRequest(t, ws, http.MethodPut, "/api/simulation/speed",
		map[string]any{"speed": 5.0})

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 5.0, controller.speed)
}

func TestDateRangeProxy(t *testing.T) {
	ws := NewWebServer(&fakeController{})

	status, envelope := doRequest(t, ws, http.MethodGet, "/api/market-data/date-range", nil)

	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, envelope["success"])
}
