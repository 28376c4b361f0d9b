package utils

import "go.uber.org/zap"

// ServiceLogger adapts a zap logger to the keysAndValues interface the
// application services and the HTTP layer expect.
type ServiceLogger struct {
	sugar *zap.SugaredLogger
}

// NewServiceLogger creates a ServiceLogger backed by the given zap logger
func NewServiceLogger(logger *zap.Logger) *ServiceLogger {
	return &ServiceLogger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Info logs at info level with structured key/value pairs
func (l *ServiceLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Error logs at error level with structured key/value pairs
func (l *ServiceLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}
