// Package notify forwards selected bus events to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

type Sender interface {
	Send(text string) error
}

type telegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("notify.telegram", "bot", bot.Self.UserName)
	return &telegramSender{bot: bot, chatID: chatID}, nil
}

func (s *telegramSender) Send(text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := s.bot.Send(msg)
	return err
}

var titles = map[event.Type]string{
	event.IdeaAdded:     "💡 <b>Ideas updated</b>",
	event.TodoChanged:   "✅ <b>Todos changed</b>",
	event.WorkoutLogged: "🏋️ <b>Workout logged</b>",
}

// Format renders ev as a chat message. Event types nobody wants on their
// phone report false.
func Format(ev event.Event) (string, bool) {
	title, ok := titles[ev.Type]
	if !ok {
		return "", false
	}
	file, action := fileOf(ev.Data)
	msg := title
	if file != "" {
		msg += "\n<code>" + html.EscapeString(filepath.Base(file)) + "</code>"
	}
	if action == "add" {
		msg += " (new)"
	}
	msg += "\n<i>" + ev.Timestamp.Local().Format("Jan 2 15:04") + "</i>"
	return msg, true
}

func fileOf(data any) (file, action string) {
	switch d := data.(type) {
	case map[string]string:
		return d["file"], d["action"]
	case map[string]any:
		file, _ = d["file"].(string)
		action, _ = d["action"].(string)
		return file, action
	}
	return "", ""
}

// Notifier queues messages from the bus and sends them on its own goroutine
// so a slow chat API never holds up publishers.
type Notifier struct {
	sender Sender
	queue  chan string
}

func New(sender Sender, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 32
	}
	return &Notifier{sender: sender, queue: make(chan string, buffer)}
}

// Handle is an event.Handler.
func (n *Notifier) Handle(ev event.Event) error {
	msg, ok := Format(ev)
	if !ok {
		return nil
	}
	select {
	case n.queue <- msg:
		return nil
	default:
		return fmt.Errorf("notify queue full, dropped %s", ev.Type)
	}
}

func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			if err := n.sender.Send(msg); err != nil {
				logger.Warn("notify.send", "err", err)
			}
		}
	}
}
