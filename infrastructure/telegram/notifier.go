package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/siddiqueakber/ai-creative-director-sub001/domain/models"
	"github.com/siddiqueakber/ai-creative-director-sub001/domain/ports"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/config"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier - Telegram implementation of NotifierPort
type TelegramNotifier struct {
	cfg        config.TelegramConfig
	apiBase    string
	httpClient *http.Client
}

// NewTelegramNotifier สร้าง TelegramNotifier
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		cfg:     cfg,
		apiBase: defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

var _ ports.NotifierPort = (*TelegramNotifier)(nil)

// IsEnabled ต้องเปิดและมี bot token + chat id
func (n *TelegramNotifier) IsEnabled() bool {
	return n.cfg.Enabled && n.cfg.BotToken != "" && n.cfg.ChatID != ""
}

// sendMessage ส่งข้อความไปยัง Telegram
func (n *TelegramNotifier) sendMessage(ctx context.Context, message string) error {
	if !n.IsEnabled() {
		logger.DebugContext(ctx, "Telegram notification disabled, skipping")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.cfg.BotToken)

	payload := map[string]interface{}{
		"chat_id":    n.cfg.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to send Telegram message", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.ErrorContext(ctx, "Telegram API error", "status", resp.StatusCode)
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	logger.InfoContext(ctx, "Telegram notification sent successfully")
	return nil
}

// SendRunReadyAlert แจ้งเมื่อ run assemble เสร็จ
func (n *TelegramNotifier) SendRunReadyAlert(ctx context.Context, runID, videoURL string, durationSeconds float64) error {
	message := fmt.Sprintf(`✅ <b>Run ready</b>

🆔 <code>%s</code>
⏱️ Duration: %.1fs
🎬 %s`,
		runID,
		durationSeconds,
		escapeHTML(videoURL),
	)

	return n.sendMessage(ctx, message)
}

// SendRunFailedAlert แจ้งเมื่อ run failed พร้อม layer ที่ fail
func (n *TelegramNotifier) SendRunFailedAlert(ctx context.Context, runID string, layer int, errorMsg string) error {
	stage := models.Layer(layer).StageName()

	message := fmt.Sprintf(`⚠️ <b>Run failed</b>

🆔 <code>%s</code>
⚙️ Layer %d (%s)

❌ <b>Error:</b>
<pre>%s</pre>`,
		runID,
		layer,
		stage,
		escapeHTML(truncateString(errorMsg, 500)),
	)

	return n.sendMessage(ctx, message)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// escapeHTML escape HTML special characters for Telegram
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// truncateString ตัดตาม rune ไม่ให้ UTF-8 ขาดกลางตัว
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
