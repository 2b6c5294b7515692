package notifier

import (
	"context"
	"fmt"

	botgolang "github.com/mail-ru-im/bot-golang"
)

const (
	ApprovePrefix = "/approve_"
	RejectPrefix  = "/reject_"
)

// BotNotifier – delivers notifications as VK Teams messages
type BotNotifier struct {
	bot *botgolang.Bot
}

func NewBotNotifier(bot *botgolang.Bot) *BotNotifier {
	return &BotNotifier{bot: bot}
}

func (n *BotNotifier) Notify(ctx context.Context, userID, template string, data Data) error {
	message := n.bot.NewTextMessage(userID, Render(template, data))

	if Decidable(template) {
		keyboard := botgolang.NewKeyboard()
		approve := botgolang.NewCallbackButton("✅Aprovar", ApprovePrefix+data.Code)
		reject := botgolang.NewCallbackButton("❌Rejeitar", RejectPrefix+data.Code).WithStyle(botgolang.ButtonAttention)
		keyboard.AddRow(approve, reject)
		message.AttachInlineKeyboard(keyboard)
	}

	return send(ctx, message)
}

// Reply – plain text answer to a user command or button press
func (n *BotNotifier) Reply(ctx context.Context, userID, text string) error {
	return send(ctx, n.bot.NewTextMessage(userID, text))
}

// send – Message.Send does not take a context, so the deadline is enforced around it
func send(ctx context.Context, message *botgolang.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- message.Send()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
