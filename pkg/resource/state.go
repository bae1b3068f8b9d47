package resource

// Status is the tag of a State.
type Status int

const (
	Idle    Status = iota // Nothing loaded or requested yet
	Loading               // Fetch in progress
	Ready                 // Data successfully loaded
	Error                 // Fetch failed
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a tagged variant: Idle | Loading | Error(Message) | Ready(Value).
// Value is only meaningful when Status is Ready, Message only when Status
// is Error.
type State[T any] struct {
	Status  Status `json:"status"`
	Value   T      `json:"value"`
	Message string `json:"message,omitempty"`
}

// IdleState returns the Idle variant.
func IdleState[T any]() State[T] {
	return State[T]{Status: Idle}
}

// LoadingState returns the Loading variant.
func LoadingState[T any]() State[T] {
	return State[T]{Status: Loading}
}

// ReadyState returns Ready(v).
func ReadyState[T any](v T) State[T] {
	return State[T]{Status: Ready, Value: v}
}

// ErrorState returns Error(msg).
func ErrorState[T any](msg string) State[T] {
	return State[T]{Status: Error, Message: msg}
}

// Get returns the value and true when the state is Ready.
func (s State[T]) Get() (T, bool) {
	if s.Status != Ready {
		var zero T
		return zero, false
	}
	return s.Value, true
}
