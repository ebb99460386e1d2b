// simulator : 전체 조립. 백엔드 클라이언트, 차트 조율자, 웹 표면을 묶고
// 시뮬레이션 생명주기를 관리함
package simulator

import (
	"context"
	"errors"
	"sync"
	"time"

	"otter/backend"
	"otter/chartsync"
	"otter/chartview"
	"otter/clock"
	"otter/config"
	"otter/interfaces"
	"otter/model"
	"otter/notification"
	"otter/utils/log"
	"otter/webserver"
)

var ErrAlreadyRunning = errors.New("a simulation is already in progress")

// Otter : 시뮬레이터 인스턴스
type Otter struct {
	cfg *config.Config

	backend     interfaces.Backend
	coordinator *chartsync.Coordinator
	hub         *chartsync.CrosshairHub
	viewStore   *chartview.ViewStore
	webServer   *webserver.WebServer
	notifier    *notification.TelegramNotifier

	mu      sync.Mutex
	session *chartsync.Session
}

func NewOtter(cfg *config.Config) *Otter {
	// 1) 백엔드 클라이언트
	var opts []backend.Option
	if cfg.BackendAccessKey != "" {
		opts = append(opts, backend.WithCredentials(cfg.BackendAccessKey, cfg.BackendSecretKey))
	}
	client := backend.NewClient(cfg.BackendURL, opts...)

	// 2) 차트 조율자 + 크로스헤어 허브
	coordinator := chartsync.NewCoordinator(client)
	hub := chartsync.NewCrosshairHub(coordinator)

	// 3) 프레젠테이션 구독자
	viewStore := chartview.NewViewStore()
	coordinator.AddConsumer(viewStore)

	o := &Otter{
		cfg:         cfg,
		backend:     client,
		coordinator: coordinator,
		hub:         hub,
		viewStore:   viewStore,
		notifier:    notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID),
	}

	// 4) 제어 API (SSE 중계도 겸함)
	o.webServer = webserver.NewWebServer(o)
	coordinator.AddConsumer(o.webServer)
	return o
}

// Start : 보조 서버를 백그라운드로 띄우고 제어 API 서빙에 블록.
// SIGTERM이 오면 fiber가 graceful shutdown 후 리턴함
func (o *Otter) Start() {
	log.Infof("Otter starting...")

	go chartview.StartChartServer(o.cfg.ChartViewAddr, o.viewStore)
	go webserver.StartCrosshairSocket(o.cfg.CrosshairAddr, o.hub)

	log.Infof("Otter started. Open http://localhost%s/chart to see charts!", o.cfg.ChartViewAddr)
	o.webServer.Start(o.cfg.APIPort)
}

// Stop : 진행중인 시뮬레이션 정리
func (o *Otter) Stop() {
	log.Infof("Otter stopping...")

	o.mu.Lock()
	session := o.session
	o.session = nil
	o.mu.Unlock()

	if session != nil {
		session.Stop()
	}
	log.Infof("Otter stopped.")
}

// StartSimulation : 새 시뮬레이션 시작. 기존 세션이 살아 있으면 거부
func (o *Otter) StartSimulation(ctx context.Context, start time.Time, speed float64) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil && o.session.Status() != clock.StatusStopped {
		return "", ErrAlreadyRunning
	}

	if speed <= 0 {
		speed = o.cfg.DefaultSpeed
	}

	session, err := chartsync.NewSession(ctx, o.backend, o.coordinator, start,
		chartsync.WithClockOptions(
			clock.WithBaseInterval(o.cfg.BaseInterval),
			clock.WithSpeed(speed),
		),
		chartsync.WithOnEnd(func() {
			log.Infof("[Otter] simulation finished (end of data)")
			o.notify("Otter simulation finished: reached end of data")
		}),
	)
	if err != nil {
		return "", err
	}
	if err := session.Resume(); err != nil {
		session.Stop()
		return "", err
	}

	o.session = session
	o.notify("Otter simulation started at " + start.Format("2006-01-02 15:04"))
	return session.ID(), nil
}

func (o *Otter) notify(message string) {
	if !o.notifier.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.notifier.SendNotification(ctx, message); err != nil {
			log.Warnf("[Otter] %v", err)
		}
	}()
}

func (o *Otter) PauseSimulation() error {
	session, err := o.currentSession()
	if err != nil {
		return err
	}
	return session.Pause()
}

func (o *Otter) ResumeSimulation() error {
	session, err := o.currentSession()
	if err != nil {
		return err
	}
	return session.Resume()
}

func (o *Otter) StopSimulation() error {
	o.mu.Lock()
	session := o.session
	o.session = nil
	o.mu.Unlock()

	if session == nil {
		return webserver.ErrNoSimulation
	}
	session.Stop()
	return nil
}

func (o *Otter) SetSpeed(speed float64) error {
	session, err := o.currentSession()
	if err != nil {
		return err
	}
	return session.SetSpeed(speed)
}

func (o *Otter) SimulationState() (webserver.SimulationState, bool) {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()

	if session == nil {
		return webserver.SimulationState{}, false
	}
	return webserver.SimulationState{
		ID:          session.ID(),
		Status:      string(session.Status()),
		CurrentTime: session.CurrentTime(),
		Speed:       session.Speed(),
	}, true
}

func (o *Otter) DateRange(ctx context.Context) (model.DateRange, error) {
	return o.backend.DateRange(ctx)
}

func (o *Otter) currentSession() (*chartsync.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil, webserver.ErrNoSimulation
	}
	return o.session, nil
}
