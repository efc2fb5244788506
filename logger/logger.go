// Package logger provides the structured logging interface shared by every
// component, a logrus implementation and a capturing logger for tests.
package logger

import "context"

// Logger is a structured logger. Fields are attached per call or through
// WithField/WithFields for every later entry.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})

	// WithField returns a logger that adds key to all subsequent entries.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that adds fields to all subsequent entries.
	WithFields(fields map[string]interface{}) Logger
}

// Nop discards everything. It stands in when a caller supplies no logger.
type Nop struct{}

func (Nop) Debug(context.Context, string, map[string]interface{}) {}
func (Nop) Info(context.Context, string, map[string]interface{})  {}
func (Nop) Warn(context.Context, string, map[string]interface{})  {}
func (Nop) Error(context.Context, string, map[string]interface{}) {}

func (n Nop) WithField(string, interface{}) Logger     { return n }
func (n Nop) WithFields(map[string]interface{}) Logger { return n }

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
