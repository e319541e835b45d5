// Package mail is the email boundary of the server. The auth flow only builds
// messages and hands them to a Dispatcher; delivery is pluggable (log or SES).
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/logging"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Drivers accepted by config.
const (
	DriverLog = "log"
	DriverSES = "ses"
)

// ActivationMessage builds the account activation email. ttl is how long
// the link stays valid.
func ActivationMessage(to, link, token string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Activate Your Account",
		Body: fmt.Sprintf("Welcome to Event Planner!\n\nActivate your account by opening:\n%s\n\nActivation token = %s\n\nThe link expires in %s.",
			link, token, humanDuration(ttl)),
	}
}

// TwoFactorMessage builds the login code email.
func TwoFactorMessage(to, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your 2FA Code",
		Body: fmt.Sprintf("Your 2FA code is: %s\n\nIt expires in %s. If you did not try to sign in, ignore this email.",
			code, humanDuration(ttl)),
	}
}

// humanDuration renders whole days, hours or minutes in words and falls back
// to Duration.String otherwise.
func humanDuration(d time.Duration) string {
	unit := func(n int64, name string) string {
		if n == 1 {
			return "1 " + name
		}
		return fmt.Sprintf("%d %ss", n, name)
	}

	day := 24 * time.Hour
	switch {
	case d <= 0:
		return d.String()
	case d%day == 0 && d > day:
		return unit(int64(d/day), "day")
	case d%time.Hour == 0:
		return unit(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return unit(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

// LogMailer writes messages to the logger instead of sending them.
// It is the development driver.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "sending email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
