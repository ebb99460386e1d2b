// notification : 시뮬레이션 생명주기 알림 (세션 종료, 데이터 끝 도달 등).
// 토큰이 설정 안 돼 있으면 조용히 no-op
package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"otter/utils/resty"
)

type TelegramNotifier struct {
	botToken string
	chatID   string
	client   resty.RestyClient
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		client:   resty.NewDefaultRestyClient(false, 10*time.Second),
	}
}

func (t *TelegramNotifier) Enabled() bool {
	return t.botToken != "" && t.chatID != ""
}

func (t *TelegramNotifier) SendNotification(ctx context.Context, message string) error {
	if !t.Enabled() {
		return nil
	}

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	body := map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	}

	resp, err := t.client.MakeRequest(ctx, body, nil).Post(apiURL)
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}
