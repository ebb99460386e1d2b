// config : .env + 환경변수 기반 설정. 전부 기본값이 있어서 .env 없이도 뜸
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"otter/utils/log"
)

type Config struct {
	// 시뮬레이터 백엔드 (봉/주문/시각 API)
	BackendURL       string
	BackendAccessKey string
	BackendSecretKey string

	// 제어 API + SSE
	APIPort string

	// 서버사이드 렌더 차트
	ChartViewAddr string

	// 크로스헤어 웹소켓
	CrosshairAddr string

	// 1x 속도에서의 실제 틱 간격
	BaseInterval time.Duration

	DefaultSpeed float64

	// 비어 있으면 알림 꺼짐
	TelegramBotToken string
	TelegramChatID   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("[Config] no .env file, using environment only")
	}

	cfg := &Config{
		BackendURL:       getEnv("OTTER_BACKEND_URL", "http://localhost:8000"),
		BackendAccessKey: os.Getenv("OTTER_BACKEND_ACCESS_KEY"),
		BackendSecretKey: os.Getenv("OTTER_BACKEND_SECRET_KEY"),
		APIPort:          getEnv("OTTER_API_PORT", "8090"),
		ChartViewAddr:    getEnv("OTTER_CHARTVIEW_ADDR", ":8080"),
		CrosshairAddr:    getEnv("OTTER_CROSSHAIR_ADDR", ":8091"),
		BaseInterval:     time.Second,
		DefaultSpeed:     1.0,
		TelegramBotToken: os.Getenv("OTTER_TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("OTTER_TELEGRAM_CHAT_ID"),
	}

	if raw := os.Getenv("OTTER_BASE_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid OTTER_BASE_INTERVAL %q: %w", raw, err)
		}
		cfg.BaseInterval = d
	}
	if raw := os.Getenv("OTTER_DEFAULT_SPEED"); raw != "" {
		s, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OTTER_DEFAULT_SPEED %q: %w", raw, err)
		}
		cfg.DefaultSpeed = s
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
