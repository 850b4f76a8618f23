package corelog

// NoOpLogger discards everything. It is the default when a caller builds an
// orchestrator without supplying a logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, Fields) {}
func (NoOpLogger) Info(string, Fields)  {}
func (NoOpLogger) Warn(string, Fields)  {}
func (NoOpLogger) Error(string, Fields) {}

// WithComponent satisfies ComponentAwareLogger; the component name is
// dropped since there is nowhere for it to go.
func (n NoOpLogger) WithComponent(string) Logger { return n }

var _ ComponentAwareLogger = NoOpLogger{}
