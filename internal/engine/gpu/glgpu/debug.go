package glgpu

import (
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// SetDebugCallback routes KHR_debug output to fn. Passing nil turns debug
// output off.
func (d *Device) SetDebugCallback(fn func(gpu.Diagnostic)) {
	d.debug = fn
	if fn == nil {
		gl.Disable(gl.DEBUG_OUTPUT)
		return
	}
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(d.onDebug, nil)
}

func (d *Device) onDebug(source, gltype, id, severity uint32, _ int32, message string, _ unsafe.Pointer) {
	if d.debug == nil {
		return
	}
	d.debug(gpu.Diagnostic{
		Source:   sourceName(source),
		Type:     typeName(gltype),
		ID:       id,
		Severity: severityOf(severity),
		Message:  message,
	})
}

func severityOf(s uint32) gpu.Severity {
	switch s {
	case gl.DEBUG_SEVERITY_HIGH:
		return gpu.SeverityHigh
	case gl.DEBUG_SEVERITY_MEDIUM:
		return gpu.SeverityMedium
	case gl.DEBUG_SEVERITY_LOW:
		return gpu.SeverityLow
	default:
		return gpu.SeverityNotification
	}
}

func sourceName(s uint32) string {
	switch s {
	case gl.DEBUG_SOURCE_API:
		return "api"
	case gl.DEBUG_SOURCE_WINDOW_SYSTEM:
		return "window"
	case gl.DEBUG_SOURCE_SHADER_COMPILER:
		return "compiler"
	case gl.DEBUG_SOURCE_THIRD_PARTY:
		return "third-party"
	case gl.DEBUG_SOURCE_APPLICATION:
		return "application"
	default:
		return "other"
	}
}

func typeName(t uint32) string {
	switch t {
	case gl.DEBUG_TYPE_ERROR:
		return "error"
	case gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR:
		return "deprecated"
	case gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:
		return "undefined"
	case gl.DEBUG_TYPE_PORTABILITY:
		return "portability"
	case gl.DEBUG_TYPE_PERFORMANCE:
		return "performance"
	default:
		return "other"
	}
}
