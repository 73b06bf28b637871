package telegram

import (
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/suimomentum/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Price: $100.50", "Price: $100\\.50"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// Chat ID is parsed before the bot token is checked against the API.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}

func TestFormatSwap(t *testing.T) {
	d := &models.Decision{
		Pair:           models.TradingPair{TokenIn: "SUI", TokenOut: "USDC"},
		Momentum:       0.031,
		Route:          models.Route{InputAmount: 10, OutputAmount: 10.3, TotalFees: 0.02},
		ExpectedProfit: 0.028,
	}

	msg := formatSwap(d, &models.TxReceipt{Digest: "9xDigest"})
	for _, want := range []string{
		"*Swap executed*",
		"📈 *SUI/USDC* momentum \\+3\\.10%",
		"Expected profit: *2\\.80%*",
		"`9xDigest`",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	d.Momentum = -0.05
	msg = formatSwap(d, &models.TxReceipt{DryRun: true})
	if !strings.Contains(msg, "*Swap simulated*") || !strings.Contains(msg, "📉") {
		t.Errorf("unexpected dry run message:\n%s", msg)
	}
	if strings.Contains(msg, "🧾") {
		t.Errorf("empty digest should be omitted:\n%s", msg)
	}
}

func commandMessage(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

func TestCommandReply(t *testing.T) {
	c := &Client{chatID: 42, status: func() string { return "phase: idle" }}

	tests := []struct {
		name   string
		msg    *tgbotapi.Message
		want   string
		wantOK bool
	}{
		{"ping from anyone", commandMessage(7, "/ping"), "Pong", true},
		{"status from owner chat", commandMessage(42, "/status"), "phase: idle", true},
		{"status from other chat", commandMessage(7, "/status"), "", false},
		{"unknown command", commandMessage(42, "/trade"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.commandReply(tt.msg)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("commandReply() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
