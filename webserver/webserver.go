// webserver : 시뮬레이션 제어 API + SSE 스트림.
// 차트 데이터는 SSE로 밀어주고, 제어(시작/정지/속도)는 REST로 받음
package webserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"otter/model"
	fiberhelpers "otter/utils/fiberhelper"
	"otter/utils/fiberhelper/middleware"
	"otter/utils/fiberhelper/response"
	"otter/utils/log"
)

const timeLayout = "2006-01-02T15:04:05"

var ErrNoSimulation = errors.New("no simulation is running")

// SimulationState : 진행중인 시뮬레이션의 스냅샷
type SimulationState struct {
	ID          string    `json:"simulation_id"`
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"-"`
	Speed       float64   `json:"speed"`
}

// SimulationController : 웹서버가 의존하는 제어 표면. simulator가 구현함
type SimulationController interface {
	StartSimulation(ctx context.Context, start time.Time, speed float64) (string, error)
	PauseSimulation() error
	ResumeSimulation() error
	StopSimulation() error
	SetSpeed(speed float64) error

	// ok=false면 시뮬레이션 없음 (idle)
	SimulationState() (SimulationState, bool)
	DateRange(ctx context.Context) (model.DateRange, error)
}

type WebServer struct {
	app        *fiber.App
	controller SimulationController

	sseMu      sync.Mutex
	sseClients map[chan []byte]bool
}

func NewWebServer(controller SimulationController) *WebServer {
	ws := &WebServer{
		controller: controller,
		sseClients: make(map[chan []byte]bool),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberhelpers.NewRecover())
	app.Use(middleware.LogMiddleware("/stream"))

	sim := app.Group("/api/simulation")
	sim.Post("/start", ws.handleStart)
	sim.Post("/pause", ws.handlePause)
	sim.Post("/resume", ws.handleResume)
	sim.Post("/stop", ws.handleStop)
	sim.Put("/speed", ws.handleSpeed)
	sim.Get("/status", ws.handleStatus)
	sim.Get("/current-time", ws.handleCurrentTime)

	app.Get("/api/market-data/date-range", ws.handleDateRange)
	app.Get("/stream", ws.handleStream)

	ws.app = app
	return ws
}

// Start : 블로킹. SIGTERM까지 서빙
func (ws *WebServer) Start(port string) {
	fiberhelpers.ListenWithGraceFullyShutdown(ws.app, port)
}

func (ws *WebServer) Shutdown() error {
	return ws.app.Shutdown()
}

type startRequest struct {
	StartTime string  `json:"start_time"`
	Speed     float64 `json:"speed"`
}

type speedRequest struct {
	Speed float64 `json:"speed"`
}

func (ws *WebServer) handleStart(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}
	req := fiberhelpers.RequestParse[startRequest](c)

	start, err := time.Parse(timeLayout, req.StartTime)
	if err != nil {
		return ext.Error(errors.New("start_time must be formatted as 2006-01-02T15:04:05"))
	}
	// speed 생략(0)은 그대로 넘김. 기본값은 컨트롤러 설정이 정함
	id, err := ws.controller.StartSimulation(c.Context(), start, req.Speed)
	if err != nil {
		return ext.Error(err)
	}
	return ext.Ok(fiber.Map{"simulation_id": id})
}

func (ws *WebServer) handlePause(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}
	if err := ws.controller.PauseSimulation(); err != nil {
		return ext.Error(err)
	}
	return ext.Ok(fiber.Map{"status": "paused"})
}

func (ws *WebServer) handleResume(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}
	if err := ws.controller.ResumeSimulation(); err != nil {
		return ext.Error(err)
	}
	return ext.Ok(fiber.Map{"status": "running"})
}

func (ws *WebServer) handleStop(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}
	if err := ws.controller.StopSimulation(); err != nil {
		return ext.NotFound(err)
	}
	return ext.Ok(fiber.Map{"status": "stopped"})
}

func (ws *WebServer) handleSpeed(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}
	req := fiberhelpers.RequestParse[speedRequest](c)

	if err := ws.controller.SetSpeed(req.Speed); err != nil {
		return ext.Error(err)
	}
	return ext.Ok(fiber.Map{"speed": req.Speed})
}

func (ws *WebServer) handleStatus(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}

	state, ok := ws.controller.SimulationState()
	if !ok {
		return ext.Ok(fiber.Map{"status": "idle"})
	}
	return ext.Ok(fiber.Map{
		"simulation_id": state.ID,
		"status":        state.Status,
		"current_time":  state.CurrentTime.Format(timeLayout),
		"speed":         state.Speed,
	})
}

func (ws *WebServer) handleCurrentTime(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}

	state, ok := ws.controller.SimulationState()
	if !ok {
		return ext.NotFound(ErrNoSimulation)
	}
	return ext.Ok(fiber.Map{"current_time": state.CurrentTime.Format(timeLayout)})
}

func (ws *WebServer) handleDateRange(c *fiber.Ctx) error {
	ext := response.Ext{Ctx: c}

	dateRange, err := ws.controller.DateRange(c.Context())
	if err != nil {
		return ext.Error(err, fiber.StatusBadGateway)
	}
	return ext.Ok(dateRange)
}

// handleStream : SSE. 접속 시점 이후의 차트/포커스 이벤트를 흘려보냄
func (ws *WebServer) handleStream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	clientChan := make(chan []byte, 50)
	ws.sseMu.Lock()
	ws.sseClients[clientChan] = true
	ws.sseMu.Unlock()

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			ws.sseMu.Lock()
			delete(ws.sseClients, clientChan)
			ws.sseMu.Unlock()
		}()

		// 주기적 ping으로 끊긴 클라이언트를 감지해서 고루틴 회수
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg := <-clientChan:
				if _, err := w.WriteString("data: " + string(msg) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

// OnChartPayload : ChartConsumer 구현. 조율자가 주는 페이로드를 SSE로 중계
func (ws *WebServer) OnChartPayload(payload model.ChartPayload) {
	ws.broadcastSSE("chart", payload)
}

func (ws *WebServer) OnFocusPoint(focus model.FocusPoint, active bool) {
	ws.broadcastSSE("focus", struct {
		model.FocusPoint
		Active bool `json:"active"`
	}{focus, active})
}

// broadcastSSE : 느린 클라이언트는 버림 (차트 스트림은 최신 상태만 의미 있음)
func (ws *WebServer) broadcastSSE(typ string, data interface{}) {
	payload, err := json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: typ, Data: data})
	if err != nil {
		log.Errorf("[WebServer] SSE marshal failed: %v", err)
		return
	}

	ws.sseMu.Lock()
	defer ws.sseMu.Unlock()

	for ch := range ws.sseClients {
		select {
		case ch <- payload:
		default:
		}
	}
}
