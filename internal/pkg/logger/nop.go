package logger

// NopLogger discards everything. Used in tests.
type NopLogger struct{}

func NewNopLogger() ILogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(string, string, map[string]interface{}) {}
func (l *NopLogger) Info(string, string, map[string]interface{})  {}
func (l *NopLogger) Warn(string, string, map[string]interface{})  {}
func (l *NopLogger) Error(string, string, map[string]interface{}) {}
func (l *NopLogger) Sync() error                                  { return nil }
