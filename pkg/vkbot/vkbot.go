package vkbot

import (
	"fmt"

	"critical-approve/internal/config"
	botgolang "github.com/mail-ru-im/bot-golang"
)

// New – connects to the VK Teams bot API; nil when no token is configured
func New(cfg config.Bot, debug bool) (*botgolang.Bot, error) {
	if cfg.Token == "" {
		return nil, nil
	}

	opts := []botgolang.BotOption{botgolang.BotDebug(debug)}
	if cfg.APIURL != "" {
		opts = append(opts, botgolang.BotApiURL(cfg.APIURL))
	}

	bot, err := botgolang.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bot: %w", err)
	}
	return bot, nil
}
