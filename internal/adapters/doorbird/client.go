// Package doorbird implements ports.DeviceClient against the Doorbird LAN API.
package doorbird

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bft-labs/birdcall/internal/domain"
	"github.com/bft-labs/birdcall/internal/ports"
	"github.com/bft-labs/birdcall/pkg/log"
)

const (
	sessionEndpoint  = "/bha-api/getsession.cgi"
	transmitEndpoint = "/bha-api/audio-transmit.cgi"

	// ContentTypeAudio is the media type the device expects for u-law audio.
	ContentTypeAudio = "audio/basic"
)

// Client implements ports.DeviceClient over HTTP with basic auth.
type Client struct {
	client ports.HTTPClient
	logger log.Logger
}

// NewClient creates a Doorbird client.
func NewClient(client ports.HTTPClient, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Client{
		client: client,
		logger: logger,
	}
}

// sessionResponse is the body of getsession.cgi.
type sessionResponse struct {
	BHA struct {
		ReturnCode string `json:"RETURNCODE"`
		SessionID  string `json:"SESSIONID"`
	} `json:"BHA"`
}

// OpenSession requests a session token.
func (c *Client) OpenSession(ctx context.Context, ep domain.Endpoint) (domain.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sessionURL(ep), nil)
	if err != nil {
		return domain.Session{}, &domain.Error{Kind: domain.KindInvalid, Err: fmt.Errorf("create request: %w", err)}
	}
	req.SetBasicAuth(ep.Username, ep.Password)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Session{}, &domain.Error{Kind: domain.KindConnection, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("session request refused",
			log.String("device", ep.Address),
			log.Int("status", resp.StatusCode),
			log.String("body", string(body)))
		return domain.Session{}, &domain.Error{
			Kind:       domain.KindSession,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to obtain session id"),
		}
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return domain.Session{}, &domain.Error{
			Kind: domain.KindSession,
			Err:  fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err),
		}
	}
	if sr.BHA.SessionID == "" {
		return domain.Session{}, &domain.Error{
			Kind: domain.KindSession,
			Err:  fmt.Errorf("%w: BHA.SESSIONID missing", domain.ErrMalformedResponse),
		}
	}

	return domain.Session{ID: sr.BHA.SessionID}, nil
}

// Transmit streams body to the device speaker. The body is read
// incrementally by the transport, so a paced reader keeps the request open
// for as long as it takes to drain.
func (c *Client) Transmit(ctx context.Context, ep domain.Endpoint, sess domain.Session, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transmitURL(ep, sess), body)
	if err != nil {
		return &domain.Error{Kind: domain.KindInvalid, Err: fmt.Errorf("create request: %w", err)}
	}
	req.SetBasicAuth(ep.Username, ep.Password)
	req.Header.Set("Content-Type", ContentTypeAudio)
	req.Header.Set("Connection", "Keep-Alive")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.Error{Kind: domain.KindTransmit, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &domain.Error{
			Kind:       domain.KindTransmit,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to transmit audio: %s", string(respBody)),
		}
	}
	// Drain so the keep-alive connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sessionURL(ep domain.Endpoint) string {
	return "http://" + ep.Address + sessionEndpoint
}

func transmitURL(ep domain.Endpoint, sess domain.Session) string {
	return "http://" + ep.Address + transmitEndpoint + "/sessionid=" + url.PathEscape(sess.ID)
}

var _ ports.DeviceClient = (*Client)(nil)
