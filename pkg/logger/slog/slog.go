// Package slog adapts the standard library's structured logger to the
// logger.Logger interface, for callers that do not want to pull in zerolog.
package slog

import (
	"log/slog"
)

// SlogHandler forwards log records to a slog.Logger built from the handler
// it was constructed with.
type SlogHandler struct {
	logger *slog.Logger
}

// New wraps the given slog handler in a logger.Logger.
func New(h slog.Handler) *SlogHandler {
	return &SlogHandler{logger: slog.New(h)}
}

func (handler *SlogHandler) Error(msg string, args ...any) {
	handler.logger.Error(msg, args...)
}

func (handler *SlogHandler) Warn(msg string, args ...any) {
	handler.logger.Warn(msg, args...)
}

func (handler *SlogHandler) Info(msg string, args ...any) {
	handler.logger.Info(msg, args...)
}

func (handler *SlogHandler) Debug(msg string, args ...any) {
	handler.logger.Debug(msg, args...)
}
