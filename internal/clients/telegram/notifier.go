package telegram

import (
	"fmt"

	"github.com/crewmark/recruiter/internal/events"
	"github.com/crewmark/recruiter/internal/logger"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Notifier pushes one-way recruiting alerts to an admin chat.
type Notifier struct {
	api    *botApi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {

	api, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	return &Notifier{api: api, chatID: chatID}, nil
}

func (n *Notifier) OnRecruitingPaused(event events.RecruitingPaused) {
	n.send(fmt.Sprintf("Recruiting paused for shift %v: %v", event.TrackingCode, event.Reason))
}

func (n *Notifier) OnRecruitingResumed(event events.RecruitingResumed) {
	n.send(fmt.Sprintf("Recruiting resumed for shift %v (was %v, starts in %.1f hours)",
		event.TrackingCode, event.PreviousStatus, event.HoursUntilStart))
}

func (n *Notifier) send(text string) {
	_, err := n.api.Send(botApi.NewMessage(n.chatID, text))
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeTgApi).
			Errorf("failed to send admin notification: %v", err)
	}
}
