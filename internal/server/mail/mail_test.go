package mail

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventplanner/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationMessage(t *testing.T) {
	m := ActivationMessage("a@x.com", "http://app/activate?email=a%40x.com&token=t1", "t1", 48*time.Hour)

	assert.Equal(t, "a@x.com", m.To)
	assert.Equal(t, "Activate Your Account", m.Subject)
	assert.Contains(t, m.Body, "http://app/activate?email=a%40x.com&token=t1")
	assert.Contains(t, m.Body, "t1")
	assert.Contains(t, m.Body, "The link expires in 2 days.")
	assert.NotContains(t, m.Body, "24 hours")
}

func TestTwoFactorMessage(t *testing.T) {
	m := TwoFactorMessage("a@x.com", "123456", 10*time.Minute)

	assert.Equal(t, "Your 2FA Code", m.Subject)
	assert.Contains(t, m.Body, "Your 2FA code is: 123456")
	assert.Contains(t, m.Body, "It expires in 10 minutes.")
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{24 * time.Hour, "24 hours"},
		{72 * time.Hour, "3 days"},
		{time.Hour, "1 hour"},
		{90 * time.Minute, "90 minutes"},
		{time.Minute, "1 minute"},
		{45 * time.Second, "45s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanDuration(tt.in), tt.in.String())
	}
}

func TestLogMailer_Send(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(logging.DriverSlog, "info", &buf)
	require.NoError(t, err)

	err = NewLogMailer(log).Send(context.Background(), TwoFactorMessage("a@x.com", "654321", time.Minute))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "sending email")
	assert.Contains(t, out, "a@x.com")
	assert.Contains(t, out, "654321")
}
