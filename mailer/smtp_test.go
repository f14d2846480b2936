package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "mailer",
		Password: "hunter2",
		FromName: "Membership",
		FromAddr: "noreply@example.com",
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Host = "" },
		func(c *Config) { c.Port = "" },
		func(c *Config) { c.FromAddr = "" },
	} {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate())
	}
}

func TestNewSMTPSender_InvalidConfig(t *testing.T) {
	_, err := NewSMTPSender(Config{Host: "smtp.example.com"})
	assert.Error(t, err)
}

func TestSMTPSender_Send(t *testing.T) {
	sender, err := NewSMTPSender(validConfig())
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotAuth smtp.Auth
	var gotTo []string
	var gotMsg []byte
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err = sender.Send(context.Background(), "invitee@example.com", "Welcome", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"invitee@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "From: Membership <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: invitee@example.com\r\n")
	assert.Contains(t, msg, "Subject: Welcome\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"\r\n")
	assert.Contains(t, msg, "\r\n\r\n<p>hi</p>")
}

func TestSMTPSender_Send_NoAuthWithoutCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Username = ""
	cfg.Password = ""

	sender, err := NewSMTPSender(cfg)
	require.NoError(t, err)

	var gotAuth smtp.Auth
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), "x@example.com", "s", "b"))
	assert.Nil(t, gotAuth)
}

func TestSMTPSender_Send_TransportError(t *testing.T) {
	sender, err := NewSMTPSender(validConfig())
	require.NoError(t, err)

	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err = sender.Send(context.Background(), "x@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send failed")
}

func TestSMTPSender_Send_ContextCancelled(t *testing.T) {
	sender, err := NewSMTPSender(validConfig())
	require.NoError(t, err)

	release := make(chan struct{})
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		<-release
		return nil
	}
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = sender.Send(ctx, "x@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send cancelled")
}

func TestSMTPSender_Send_MissingRecipient(t *testing.T) {
	sender, err := NewSMTPSender(validConfig())
	require.NoError(t, err)

	assert.Error(t, sender.Send(context.Background(), "", "s", "b"))
}
