package sender

import (
	"context"
	"time"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Message is one email. HTML is optional; when both bodies are set the
// message is sent as multipart/alternative.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) (SendResult, error)
}
