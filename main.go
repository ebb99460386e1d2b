package main

import (
	"time"

	"otter/config"
	"otter/simulator"
	"otter/utils/log"
)

func main() {
	// 1) 설정 로드 (.env + 환경변수)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// 2) Otter 인스턴스 생성
	otter := simulator.NewOtter(cfg)

	// 3) Start : SIGTERM까지 블록 (fiber graceful shutdown)
	otter.Start()

	// 4) Stop
	otter.Stop()
	time.Sleep(1 * time.Second)
	log.Infof("Shutdown complete.")
}
