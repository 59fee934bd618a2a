// Package telegram implements a Telegram Bot API notifier
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithAPIBase creates a Telegram notifier with custom API base (for testing)
func NewWithAPIBase(botToken, chatID, apiBase string) *Telegram {
	t := New(botToken, chatID)
	t.apiBase = apiBase
	return t
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	if t.apiBase == "" {
		t.apiBase = defaultAPIBase
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (t *Telegram) Send(alert notifier.Alert) error {
	return t.sendMessage(t.formatAlert(alert))
}

func (t *Telegram) SendBatch(alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d Trading Recommendations*\n\n", len(alerts)))

	for i, alert := range alerts {
		sb.WriteString(t.formatAlert(alert))
		if i < len(alerts)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

func (t *Telegram) formatAlert(alert notifier.Alert) string {
	var sb strings.Builder
	rec := alert.Recommendation

	actionEmoji := "📈"
	if rec.Action == core.ActionSell {
		actionEmoji = "📉"
	} else if rec.Action == core.ActionHold {
		actionEmoji = "⏸️"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* - %s\n", actionEmoji, strings.ToUpper(alert.Asset), rec.Action))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.1f%%\n", rec.Confidence))
	sb.WriteString(fmt.Sprintf("💰 Price: $%.2f | Entry: $%.2f | Stop: $%.2f\n",
		rec.CurrentPrice, rec.EntryPrice, rec.StopLoss))
	sb.WriteString(fmt.Sprintf("🎯 Targets: $%.2f / $%.2f / $%.2f\n",
		rec.Targets.Target1, rec.Targets.Target2, rec.Targets.Target3))
	sb.WriteString(fmt.Sprintf("⚖️ Risk: %s | %s\n", rec.RiskLevel, rec.Timeframe))

	if len(rec.Reasons) > 0 {
		sb.WriteString(fmt.Sprintf("💡 %s\n", strings.Join(rec.Reasons, "; ")))
	}
	if alert.Warning != "" {
		sb.WriteString(fmt.Sprintf("⚠️ %s\n", alert.Warning))
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", alert.GeneratedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
