// 헤드리스 리플레이. 브라우저 없이 세션 하나를 돌려서 틱마다 차트 갱신
// 내용을 로그로 확인하는 용도 (백엔드 연결 점검 겸)
package main

import (
	"context"
	"flag"
	"sync/atomic"
	"time"

	"otter/backend"
	"otter/chartsync"
	"otter/clock"
	"otter/config"
	"otter/model"
	rlog "otter/utils/log"
)

type printConsumer struct {
	payloads atomic.Int64
}

func (p *printConsumer) OnChartPayload(payload model.ChartPayload) {
	p.payloads.Add(1)
	last := "-"
	if n := len(payload.Candles); n > 0 {
		last = payload.Candles[n-1].Time.Format("01/02 15:04")
	}
	rlog.Infof("[%s] candles=%d last=%s crossed=%v markers=%d",
		payload.Timeframe, len(payload.Candles), last, payload.BoundaryCrossed, len(payload.Markers))
}

func (p *printConsumer) OnFocusPoint(model.FocusPoint, bool) {}

func main() {
	startArg := flag.String("start", "2024-01-15T09:00:00", "simulation start time")
	speed := flag.Float64("speed", 10.0, "playback speed")
	duration := flag.Duration("for", 30*time.Second, "how long to replay (real time)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		rlog.Fatal(err)
	}

	start, err := time.Parse("2006-01-02T15:04:05", *startArg)
	if err != nil {
		rlog.Fatal(err)
	}

	client := backend.NewClient(cfg.BackendURL)
	coordinator := chartsync.NewCoordinator(client)

	consumer := &printConsumer{}
	coordinator.AddConsumer(consumer)

	ended := make(chan struct{})
	session, err := chartsync.NewSession(context.Background(), client, coordinator, start,
		chartsync.WithClockOptions(
			clock.WithBaseInterval(cfg.BaseInterval),
			clock.WithSpeed(*speed),
		),
		chartsync.WithOnEnd(func() { close(ended) }),
	)
	if err != nil {
		rlog.Fatal(err)
	}

	if err := session.Resume(); err != nil {
		rlog.Fatal(err)
	}

	select {
	case <-time.After(*duration):
		rlog.Infof("replay window elapsed")
	case <-ended:
		rlog.Infof("replay hit end of data")
	}

	session.Stop()
	rlog.Infof("replayed until %s (%d payloads)",
		session.CurrentTime().Format("2006-01-02 15:04"), consumer.payloads.Load())
}
