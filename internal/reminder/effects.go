package reminder

import (
	"context"
	"time"

	"github.com/julianstephens/daytrack/internal/logger"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/notifier"
)

// Notifier delivers a system notification
type Notifier interface {
	Notify(ctx context.Context, msg notifier.Message) error
}

// TonePlayer plays an audible alert
type TonePlayer interface {
	Play(ctx context.Context, sound models.ReminderSound, d time.Duration) error
}

// Effects runs the side effects of a fired reminder. Every field is
// optional and every failure is logged, never returned.
type Effects struct {
	Notifier Notifier
	Player   TonePlayer
	Alert    func(Decision)
}

// Execute runs the in-app alert, the system notification and the tone for d
func (e *Effects) Execute(ctx context.Context, d Decision, sound models.ReminderSound) {
	if e == nil {
		return
	}
	if e.Alert != nil {
		e.Alert(d)
	}

	if e.Notifier != nil {
		msg := notifier.Message{
			Type:  notifier.MessageTypeNotify,
			Title: d.Title(),
			Body:  d.Body(),
			Tag:   d.Task.ID,
			Data:  map[string]string{"taskId": d.Task.ID},
		}
		if err := e.Notifier.Notify(ctx, msg); err != nil {
			logger.Debug("Notification skipped", "task", d.Task.ID, "error", err)
		}
	}

	if e.Player != nil && sound != models.SoundNone {
		if err := e.Player.Play(ctx, sound, d.Tone); err != nil {
			logger.Debug("Reminder tone skipped", "task", d.Task.ID, "error", err)
		}
	}
}
