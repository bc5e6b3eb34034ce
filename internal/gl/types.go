// SPDX-License-Identifier: Unlicense OR MIT

package gl

// Native GLX objects are opaque to the shim. They are carried as
// addresses and only ever compared or passed back to the real
// implementation.
type (
	Display    uintptr
	Context    uintptr
	Drawable   uintptr
	FBConfig   uintptr
	VisualInfo uintptr
)

type (
	Query struct{ V uint }
	Sync  struct{ V uintptr }
)

func (q Query) Valid() bool {
	return q.V != 0
}

func (s Sync) Valid() bool {
	return s.V != 0
}

// DebugMessage is one message delivered through a debug output callback.
type DebugMessage struct {
	Source   Enum
	Type     Enum
	ID       uint
	Severity Enum
	Message  string
}

func (m DebugMessage) String() string {
	return SourceName(m.Source) + " " + TypeName(m.Type) + " [" + SeverityName(m.Severity) + "] " + m.Message
}

func SourceName(e Enum) string {
	switch e {
	case DEBUG_SOURCE_API:
		return "API"
	case DEBUG_SOURCE_WINDOW_SYSTEM:
		return "window system"
	case DEBUG_SOURCE_SHADER_COMPILER:
		return "shader compiler"
	case DEBUG_SOURCE_THIRD_PARTY:
		return "third party"
	case DEBUG_SOURCE_APPLICATION:
		return "application"
	default:
		return "other"
	}
}

func TypeName(e Enum) string {
	switch e {
	case DEBUG_TYPE_ERROR:
		return "error"
	case DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "deprecated"
	case DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "undefined"
	case DEBUG_TYPE_PORTABILITY:
		return "portability"
	case DEBUG_TYPE_PERFORMANCE:
		return "performance"
	case DEBUG_TYPE_MARKER:
		return "marker"
	default:
		return "other"
	}
}

func SeverityName(e Enum) string {
	switch e {
	case DEBUG_SEVERITY_HIGH:
		return "high"
	case DEBUG_SEVERITY_MEDIUM:
		return "medium"
	case DEBUG_SEVERITY_LOW:
		return "low"
	case DEBUG_SEVERITY_NOTIFICATION:
		return "notification"
	default:
		return "unknown"
	}
}
