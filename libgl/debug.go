package libgl

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/v4.5-core/gl"
)

type LabeledGlObject interface {
	SetDebugLabel(string)
}

func setObjectLabel(namespace, id uint32, label string) {
	if label == "" {
		return
	}
	bytes := []byte(label)
	gl.ObjectLabel(namespace, id, int32(len(bytes)), (*uint8)(unsafe.Pointer(&bytes[0])))
}

// PushDebugGroup opens a named group in debuggers like RenderDoc. The returned
// function closes it.
func PushDebugGroup(name string) (pop func()) {
	gl.PushDebugGroup(gl.DEBUG_SOURCE_APPLICATION, 999, -1, gl.Str(name+"\x00"))
	return gl.PopDebugGroup
}

// EnableDebugOutput forwards driver messages to the logger. Notifications are
// logged at debug level, everything else by severity.
func EnableDebugOutput(logger *slog.Logger) {
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(func(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
		level := slog.LevelDebug
		switch severity {
		case gl.DEBUG_SEVERITY_HIGH:
			level = slog.LevelError
		case gl.DEBUG_SEVERITY_MEDIUM:
			level = slog.LevelWarn
		case gl.DEBUG_SEVERITY_LOW:
			level = slog.LevelInfo
		}
		logger.Log(context.Background(), level, "gl", "id", id, "message", message)
	}, nil)
}
