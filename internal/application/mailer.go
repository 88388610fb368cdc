package application

import (
	"context"
	"fmt"
	"log/slog"
)

// InvitationMessage is a fully composed invitation ready for hand-off to
// the outbound messaging collaborator.
type InvitationMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers or hands off a composed message. Implementations own
// retries and transports; the core never blocks on delivery success.
type Mailer interface {
	SendInvitation(ctx context.Context, message InvitationMessage) error
}

// LogMailer is the default Mailer: it records the composed message in the
// structured log instead of delivering it.
type LogMailer struct {
	Logger *slog.Logger
}

// SendInvitation implements Mailer.
func (m LogMailer) SendInvitation(ctx context.Context, message InvitationMessage) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "invitation composed",
		"to", message.To,
		"subject", message.Subject,
	)
	return nil
}

func composeInvitation(speaker Speaker, baseURL string) InvitationMessage {
	link := fmt.Sprintf("%s/respond/%s", baseURL, speaker.AccessToken)
	deadline := ""
	if speaker.ResponseDeadline != nil {
		deadline = speaker.ResponseDeadline.Format("Monday, 2 January 2006")
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nWe would be delighted to host you for a seminar. "+
			"Please choose a date and reply via your personal link:\n\n%s\n\n"+
			"We kindly ask for a response by %s.\n\nBest regards,\n%s",
		speaker.FullName, link, deadline, speaker.Host,
	)
	return InvitationMessage{
		To:      speaker.Email,
		Subject: "Seminar invitation",
		Body:    body,
	}
}
