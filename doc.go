// Package realtime implements the event client used by the marketdeck
// trading dashboard to consume live data from its streaming backend.
//
// # One connection, many consumers
//
// A [Client] owns a single persistent WebSocket connection and fans inbound
// frames out to any number of independent subscribers. Consumers register
// callbacks with [Client.On] keyed by event category (price_update,
// trade_executed, training_progress, ...), declare which data topics they
// need with [Client.SubscribeTopic], and push application frames with
// [Client.Send].
//
// # Lifecycle is observed, never returned
//
// Connection state changes surface exclusively through the event bus as
// connection_status, connection_error and a terminal connection_failed.
// Send, On and SubscribeTopic never fail because of connection state:
// frames sent while disconnected are queued and flushed in order once a
// connection is established.
//
// # Reachability and reconnection
//
// [Client.Connect] first probes a health endpoint; when the backend is
// absent no dial is attempted at all, which avoids a retry storm against a
// server that is simply not running. Once connected, lost connections are
// re-dialed with capped exponential backoff up to a configured attempt
// limit, and all active topic subscriptions are replayed on every
// successful reconnect.
//
// The transport lives in [github.com/marketdeck/realtime/pkg/connection]
// with a gorilla/websocket implementation in
// [github.com/marketdeck/realtime/pkg/connection/gorillaws]; the fan-out
// bus is reusable on its own from
// [github.com/marketdeck/realtime/pkg/events].
package realtime
