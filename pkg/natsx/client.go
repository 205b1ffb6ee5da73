// Package natsx opens the NATS connection used to fan analysis lifecycle
// events out to other processes.
package natsx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/casualjim/chartwise/pkg/slogx"
	"github.com/nats-io/nats.go"
)

// ClientName identifies this module's connections in NATS monitoring.
const ClientName = "chartwise"

// Connect dials the NATS server at url. Without explicit options the
// connection is named, compressed and logs disconnects through slog.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if len(opts) == 0 {
		opts = DefaultOptions()
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return conn, nil
}

// DefaultOptions names the client, enables compression and logs connection changes.
func DefaultOptions() []nats.Option {
	return []nats.Option{
		nats.Name(ClientName),
		nats.Compression(true),
		nats.Timeout(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", slogx.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}
}
