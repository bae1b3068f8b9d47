package toast

import "github.com/vango-dev/userpages/pkg/action"

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "userpages:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Emitter delivers a named event to a client.
type Emitter interface {
	Emit(event string, data any)
}

// Toast is one notification.
type Toast struct {
	Level   Type   `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Payload returns the event data sent for t.
//
// The client receives:
//   - event = "userpages:toast"
//   - data = { level: "success|error|warning|info", message: "..." }
func (t Toast) Payload() map[string]any {
	data := map[string]any{
		"level":   string(t.Level),
		"message": t.Message,
	}
	if t.Title != "" {
		data["title"] = t.Title
	}
	return data
}

// Show emits t on e.
func (t Toast) Show(e Emitter) {
	e.Emit(EventName, t.Payload())
}

// Show displays a toast notification to the user.
func Show(e Emitter, level Type, message string) {
	Toast{Level: level, Message: message}.Show(e)
}

// Success shows a success toast.
//
//	toast.Success(sess, "Changes saved!")
func Success(e Emitter, message string) {
	Show(e, TypeSuccess, message)
}

// Error shows an error toast.
//
//	toast.Error(sess, "Update failed")
func Error(e Emitter, message string) {
	Show(e, TypeError, message)
}

// Warning shows a warning toast.
func Warning(e Emitter, message string) {
	Show(e, TypeWarning, message)
}

// Info shows an info toast.
func Info(e Emitter, message string) {
	Show(e, TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(sess, toast.TypeSuccess, "Profile", "Your changes have been saved.")
func WithTitle(e Emitter, level Type, title, message string) {
	Toast{Level: level, Title: title, Message: message}.Show(e)
}

// FromSave maps a terminal save state onto a toast. Idle and Saving states
// have no toast.
func FromSave[R any](s action.State[R]) (Toast, bool) {
	switch s.Status {
	case action.Done:
		return Toast{Level: TypeSuccess, Message: s.Message}, true
	case action.Failed:
		return Toast{Level: TypeError, Message: s.Message}, true
	default:
		return Toast{}, false
	}
}
