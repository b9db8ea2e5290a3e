package sender

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSMTPSender_RequiresHostAndPort(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Port: "587", From: "shop@example.com"})
	assert.EqualError(t, err, "SMTP_HOST not set")

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "shop@example.com"})
	assert.EqualError(t, err, "SMTP_PORT not set")

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587"})
	assert.EqualError(t, err, "SMTP_FROM not set")

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "shop@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", s.cfg.From)
}

func TestSMTPSender_SendsMultipart(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "shop@example.com"})
	require.NoError(t, err)

	var gotAddr string
	var gotTo []string
	var gotBody string
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotBody = addr, to, string(msg)
		assert.NotNil(t, a)
		assert.Equal(t, "shop@example.com", from)
		return nil
	}

	res, err := s.SendEmail(context.Background(), Message{
		To:      "admin@example.com",
		Subject: "New Order #o-1",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.MessageID, "smtp-"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"admin@example.com"}, gotTo)
	assert.Contains(t, gotBody, "Subject: New Order #o-1\r\n")
	assert.Contains(t, gotBody, "multipart/alternative")
	assert.Contains(t, gotBody, "plain body")
	assert.Contains(t, gotBody, "<p>html body</p>")
}

func TestSMTPSender_HTMLOnlyAndFailure(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "localhost", Port: "1025", From: "shop@example.com"})
	require.NoError(t, err)

	var gotBody string
	s.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, msg []byte) error {
		assert.Nil(t, a)
		gotBody = string(msg)
		return nil
	}
	_, err = s.SendEmail(context.Background(), Message{To: "c@example.com", Subject: "Hi", HTML: "<b>x</b>"})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "Content-Type: text/html; charset=UTF-8\r\n\r\n<b>x</b>")

	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }
	_, err = s.SendEmail(context.Background(), Message{To: "c@example.com", Text: "x"})
	assert.EqualError(t, err, "smtp send failed: connection refused")
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	res, err := s.SendEmail(context.Background(), Message{To: "admin@example.com", Subject: "Hello", HTML: "<p>x</p>"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.MessageID, "log-"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "admin@example.com", fields["to"])
	assert.Equal(t, "<p>x</p>", fields["body"])
}
