package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// RelayTokenHeader authenticates calls between the service and the chat relay.
const RelayTokenHeader = "X-Relay-Token"

// RelayMessenger delivers messages through the chat relay's HTTP API.
type RelayMessenger struct {
	client *resty.Client
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// NewRelayMessenger creates a messenger posting to baseURL.
func NewRelayMessenger(baseURL, token string, timeout time.Duration) *RelayMessenger {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if token != "" {
		c.SetHeader(RelayTokenHeader, token)
	}
	return &RelayMessenger{client: c}
}

// Send posts a text message to recipient.
func (m *RelayMessenger) Send(ctx context.Context, recipient, text string) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(&sendRequest{Recipient: recipient, Text: text}).
		Post("/send")
	if err != nil {
		return fmt.Errorf("relay send: %w", err)
	}
	return checkStatus(resp)
}

// SendDocument uploads r as a file attachment for recipient.
func (m *RelayMessenger) SendDocument(ctx context.Context, recipient, name string, r io.Reader) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{"recipient": recipient}).
		SetFileReader("document", name, r).
		Post("/document")
	if err != nil {
		return fmt.Errorf("relay document: %w", err)
	}
	return checkStatus(resp)
}

func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return fmt.Errorf("relay status %d: %s", resp.StatusCode(), resp.String())
}

// LogMessenger writes outbound messages to the log. It stands in for the relay
// when none is configured.
type LogMessenger struct {
	log zerolog.Logger
}

func NewLogMessenger(log zerolog.Logger) *LogMessenger { return &LogMessenger{log: log} }

func (m *LogMessenger) Send(_ context.Context, recipient, text string) error {
	m.log.Info().Str("recipient", recipient).Int("chars", len(text)).Msg("outbound message")
	return nil
}

func (m *LogMessenger) SendDocument(_ context.Context, recipient, name string, r io.Reader) error {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return err
	}
	m.log.Info().Str("recipient", recipient).Str("document", name).Int64("bytes", n).Msg("outbound document")
	return nil
}
