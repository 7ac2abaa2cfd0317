package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/storefront-golang/internal/models"
)

func TestContactNotification(t *testing.T) {
	m := ContactNotification("shop@example.com", &models.ContactMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Delivery",
		Message: "Where is my kettle?",
	})

	assert.Equal(t, "shop@example.com", m.To)
	assert.Equal(t, "ada@example.com", m.ReplyTo)
	assert.Equal(t, "[Contact] Delivery", m.Subject)
	assert.Contains(t, m.Body, "Ada <ada@example.com>")
	assert.Contains(t, m.Body, "Where is my kettle?")
}

func TestBuildMsgWritesHeaders(t *testing.T) {
	msg, err := buildMsg("noreply@example.com", Message{
		To:      "shop@example.com",
		ReplyTo: "ada@example.com",
		Subject: "[Contact] Delivery",
		Body:    "hello",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Subject: [Contact] Delivery")
	assert.Contains(t, out, "shop@example.com")
	assert.Contains(t, out, "Reply-To:")
	assert.Contains(t, out, "ada@example.com")
}

func TestBuildMsgRejectsBadAddress(t *testing.T) {
	_, err := buildMsg("noreply@example.com", Message{To: "not an address"})
	assert.Error(t, err)
}

func TestLogMailerLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, LogMailer{Logger: logger}.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "a@b.c", hook.LastEntry().Data["to"])
}
