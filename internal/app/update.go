package app

import (
	"context"

	botgolang "github.com/mail-ru-im/bot-golang"
)

func (a *App) consumeUpdates(ctx context.Context) error {
	updates := a.deps.Bot.GetUpdatesChannel(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			a.dispatch(ctx, update.Type, &update.Payload)
		}
	}
}

func (a *App) dispatch(ctx context.Context, e botgolang.EventType, p *botgolang.EventPayload) {
	switch e {
	case botgolang.NEW_MESSAGE:
		a.messages.Handle(ctx, p.From.ID, p.Text)
	case botgolang.CALLBACK_QUERY:
		a.callbacks.Handle(ctx, p.From.ID, p.CallbackQuery().CallbackData)
	}
}
