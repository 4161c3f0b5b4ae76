package connection

import (
	"log/slog"
	"os"

	"github.com/marketdeck/realtime/internal/codec"
	"github.com/marketdeck/realtime/pkg/logger"
	logslog "github.com/marketdeck/realtime/pkg/logger/slog"
)

// Config carries everything a transport needs to establish the channel.
type Config struct {
	// URL is the WebSocket endpoint of the streaming backend,
	// such as "ws://localhost:8000/ws".
	URL string

	Marshaler   codec.Marshaler
	Unmarshaler codec.Unmarshaler

	Logger logger.Logger
}

// NewConfig creates a transport Config with the JSON codec and a default
// text logger on stdout. It is not absolutely necessary to create a Config
// using this function, but it ensures everything needed for the connection
// is set up.
func NewConfig(url string) *Config {
	return &Config{
		URL:         url,
		Marshaler:   codec.JSON{},
		Unmarshaler: codec.JSON{},
		Logger:      logslog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}
