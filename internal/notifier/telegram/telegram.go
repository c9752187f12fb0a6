package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/notifier"
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

// WithAPIBase points the notifier at a different Bot API host.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimRight(base, "/")
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
	if base, ok := cfg.Params["api_base"].(string); ok && base != "" {
		t.apiBase = strings.TrimRight(base, "/")
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

func (t *Telegram) Send(event notifier.Event) error {
	return t.sendMessage(t.formatEvent(event))
}

func (t *Telegram) formatEvent(e notifier.Event) string {
	var sb strings.Builder

	mode := ""
	if e.DryRun {
		mode = " (dry run)"
	}

	switch e.Kind {
	case notifier.EventExit:
		emoji := "✅"
		if e.Outcome == core.OutcomeLoss {
			emoji = "🛑"
		}
		sb.WriteString(fmt.Sprintf("%s *Exit %s*%s\n", emoji, e.Symbol, mode))
		sb.WriteString(fmt.Sprintf("💡 Reason: %s\n", e.Reason))
		sb.WriteString(fmt.Sprintf("💰 Entry %.2f → Exit %.2f (%+.1f%%)\n", e.EntryPrice, e.ExitPrice, e.PnLPct()))
	default:
		emoji := "📈"
		if e.Decision == core.DecisionShort {
			emoji = "📉"
		}
		sb.WriteString(fmt.Sprintf("%s *Entry %s*%s\n", emoji, e.Symbol, mode))
		if e.Decision != "" {
			sb.WriteString(fmt.Sprintf("🎯 Decision: %s\n", e.Decision))
		}
		sb.WriteString(fmt.Sprintf("💰 Premium: %.2f x %d lots\n", e.EntryPrice, e.Lots))
		if e.OrderID != "" {
			sb.WriteString(fmt.Sprintf("🧾 Order: %s\n", e.OrderID))
		}
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", e.Time.Format("2006-01-02 15:04:05")))

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
