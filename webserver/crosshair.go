package webserver

import (
	"net/http"

	"github.com/gorilla/websocket"

	"otter/chartsync"
	"otter/model"
	"otter/utils/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 로컬 시뮬레이터라 origin 검사 안 함
	CheckOrigin: func(r *http.Request) bool { return true },
}

// crosshairMessage : 프런트 -> 서버
//   - viewport : 차트 리사이즈/스크롤 후 좌표계 갱신
//   - move     : 활성 차트의 커서 픽셀 좌표
//   - leave    : 커서가 차트를 벗어남
type crosshairMessage struct {
	Type      string              `json:"type"`
	Timeframe model.Timeframe     `json:"timeframe"`
	X         float64             `json:"x"`
	Y         float64             `json:"y"`
	Viewport  *chartsync.Viewport `json:"viewport,omitempty"`
}

type crosshairReply struct {
	Type        string                 `json:"type"`
	Focus       model.FocusPoint       `json:"focus"`
	Projections []chartsync.Projection `json:"projections"`
}

// StartCrosshairSocket : 크로스헤어 동기화 웹소켓 서버. 블로킹
func StartCrosshairSocket(addr string, hub *chartsync.CrosshairHub) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/crosshair", func(w http.ResponseWriter, r *http.Request) {
		serveCrosshair(w, r, hub)
	})

	log.Infof("[Crosshair] listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("[Crosshair] server error: %v", err)
	}
}

func serveCrosshair(w http.ResponseWriter, r *http.Request, hub *chartsync.CrosshairHub) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("[Crosshair] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg crosshairMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("[Crosshair] read error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "viewport":
			if msg.Viewport != nil {
				hub.SetViewport(msg.Timeframe, *msg.Viewport)
			}

		case "move":
			focus, projections := hub.MoveCursor(msg.Timeframe, msg.X, msg.Y)
			reply := crosshairReply{Type: "crosshair", Focus: focus, Projections: projections}
			if err := conn.WriteJSON(reply); err != nil {
				log.Warnf("[Crosshair] write error: %v", err)
				return
			}

		case "leave":
			hub.ClearCursor(msg.Timeframe)

		default:
			log.Debugf("[Crosshair] unknown message type %q", msg.Type)
		}
	}
}
