package ports

import (
	"context"
	"io"

	"github.com/bft-labs/birdcall/internal/domain"
)

// DeviceClient talks to a Doorbird over its HTTP API.
type DeviceClient interface {
	// OpenSession requests a fresh session token from the device.
	OpenSession(ctx context.Context, ep domain.Endpoint) (domain.Session, error)

	// Transmit streams body to the device speaker under the given session.
	// It returns once the device has answered the whole request.
	Transmit(ctx context.Context, ep domain.Endpoint, sess domain.Session, body io.Reader) error
}
