package realtime

// Inbound event categories, re-emitted verbatim to subscribers.
const (
	EventPriceUpdate        = "price_update"
	EventSignalGenerated    = "signal_generated"
	EventTradeExecuted      = "trade_executed"
	EventTrainingProgress   = "training_progress"
	EventTrainingComplete   = "training_complete"
	EventSystemStatus       = "system_status"
	EventTelegramTestResult = "telegram_test_result"
	EventMessage            = "message"
)

// Categories synthesized by the client itself, never received from the
// backend.
const (
	EventConnectionStatus = "connection_status"
	EventConnectionError  = "connection_error"
	EventConnectionFailed = "connection_failed"
)

// ConnectionStatus is the payload of EventConnectionStatus.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Reason    string `json:"reason,omitempty"`
}

// ConnectionError is the payload of EventConnectionError.
type ConnectionError struct {
	Err error
}

// ConnectionFailed is the payload of the terminal EventConnectionFailed,
// emitted exactly once when the reconnect attempts are exhausted.
type ConnectionFailed struct {
	Attempts int
}
