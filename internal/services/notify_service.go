package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"kolboard/internal/models"
)

// NotifyService pushes pipeline milestones to a single ops Telegram
// channel. A missing token or failed bot init degrades to a no-op; a
// notification must never fail a transition.
type NotifyService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifyService(botToken string, chatID int64) *NotifyService {
	if botToken == "" || chatID == 0 {
		return &NotifyService{}
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[notify] telegram init failed, notifications disabled: %v", err)
		return &NotifyService{}
	}
	return &NotifyService{bot: bot, chatID: chatID}
}

func (s *NotifyService) DealWon(o *models.Opportunity) {
	s.send(fmt.Sprintf("🏆 Deal won: %s (value %.2f)", o.Name, o.DealValue))
}

func (s *NotifyService) AccountConverted(o *models.Opportunity) {
	s.send(fmt.Sprintf("🤝 New account: %s", o.Name))
}

func (s *NotifyService) send(text string) {
	if s.bot == nil {
		return
	}
	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		log.Printf("[notify] telegram send failed: %v", err)
	}
}
