// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
)

// StatusFunc returns a plain-text status summary for the /status command.
type StatusFunc func() string

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	status         StatusFunc
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context, status StatusFunc) {
	c.status = status

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	text, ok := c.commandReply(msg)
	if !ok {
		return
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	c.bot.Send(reply) //nolint:errcheck
}

// commandReply returns the reply for a command message. /status is answered
// only in the configured chat.
func (c *Client) commandReply(msg *tgbotapi.Message) (string, bool) {
	switch msg.Command() {
	case "ping":
		return "Pong", true
	case "status":
		if msg.Chat == nil || msg.Chat.ID != c.chatID {
			logger.Warn("Ignoring /status from unauthorized chat")
			return "", false
		}
		if c.status == nil {
			return "status unavailable", true
		}
		return c.status(), true
	}
	return "", false
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a trading cycle error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Trading cycle error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Trading recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendSwap sends a notification for an executed swap.
func (c *Client) SendSwap(decision *models.Decision, receipt *models.TxReceipt) error {
	return c.sendMarkdownV2(formatSwap(decision, receipt))
}

// formatSwap formats an executed swap into a Telegram MarkdownV2 message.
func formatSwap(d *models.Decision, r *models.TxReceipt) string {
	var b strings.Builder

	title := "🔁 *Swap executed*"
	if r.DryRun {
		title = "🧪 *Swap simulated*"
	}
	b.WriteString(title + "\n\n")

	directionEmoji := "📈"
	if d.Momentum < 0 {
		directionEmoji = "📉"
	}

	pair := escapeMarkdownV2(d.Pair.String())
	momentum := escapeMarkdownV2(fmt.Sprintf("%+.2f%%", d.Momentum*100))
	profit := escapeMarkdownV2(fmt.Sprintf("%.2f%%", d.ExpectedProfit*100))
	amounts := escapeMarkdownV2(fmt.Sprintf("%.4f %s → %.4f %s (fees %.4f)",
		d.Route.InputAmount, d.Pair.TokenIn, d.Route.OutputAmount, d.Pair.TokenOut, d.Route.TotalFees))

	fmt.Fprintf(&b, "%s *%s* momentum %s\n", directionEmoji, pair, momentum)
	fmt.Fprintf(&b, "💱 %s\n", amounts)
	fmt.Fprintf(&b, "💰 Expected profit: *%s*\n", profit)
	if r.Digest != "" {
		fmt.Fprintf(&b, "🧾 `%s`\n", escapeMarkdownV2(r.Digest))
	}
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
