package sms

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the Twilio account configuration.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// TwilioMessenger sends SMS through the Twilio REST API.
type TwilioMessenger struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioMessenger creates a Twilio-backed Messenger.
func NewTwilioMessenger(cfg *TwilioConfig) (*TwilioMessenger, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, errors.New("twilio account sid, auth token, and from number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioMessenger{client: client, from: cfg.FromNumber}, nil
}

// Send delivers one SMS. The Twilio SDK does not accept a context; ctx is
// checked up front so an already-cancelled broadcast stops issuing requests.
func (m *TwilioMessenger) Send(ctx context.Context, to, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(m.from)
	params.SetBody(body)

	message, err := m.client.Api.CreateMessage(params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send message to %s", to)
	}
	if message.Sid == nil {
		return "", errors.New("twilio returned no message sid")
	}
	return *message.Sid, nil
}
