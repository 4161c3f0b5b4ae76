package realtime

import (
	"context"
	"io"
	"net/http"
	"time"
)

// probe performs one cheap request against the health endpoint to decide
// whether the backend is reachable at all, before paying for a WebSocket
// dial and its retry schedule. Any HTTP response counts as reachable; the
// body is not interpreted.
func probe(ctx context.Context, client *http.Client, healthURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	return true
}
