// Package corelog provides the structured logging interface shared by every
// component of the orchestrator.
package corelog

// Fields carries structured key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger is the minimal leveled logging surface every package depends on.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// ComponentAwareLogger binds a component name to every subsequent log line,
// the way a single Run's phases tag their component (ideaflow/orchestrator,
// ideaflow/cache, ...) without threading a name through every call site.
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// WithFields merges extra fields into an existing field set without
// mutating the caller's map.
func (f Fields) WithFields(extra Fields) Fields {
	out := make(Fields, len(f)+len(extra))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
