package effects_test

import (
	"fmt"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"oreglow/libgl"
	"oreglow/libio"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var onMain chan func()
var onMainDone chan struct{}

// glAvailable is false when no window system or GL 4.5 driver is present.
// GL tests skip in that case.
var glAvailable bool

func TestMain(m *testing.M) {
	runtime.LockOSThread()

	if err := initGl(); err != nil {
		fmt.Fprintf(os.Stderr, "skipping GL tests: %v\n", err)
		os.Exit(m.Run())
	}
	glAvailable = true

	onMain = make(chan func())
	onMainDone = make(chan struct{})

	go func() {
		os.Exit(m.Run())
	}()

	for fn := range onMain {
		fn()
		onMainDone <- struct{}{}
	}
}

func initGl() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if err := glfw.Init(); err != nil {
		return err
	}
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	ctx, err := glfw.CreateWindow(64, 64, "Testing Window", nil, nil)
	if err != nil {
		glfw.Terminate()
		return err
	}
	ctx.MakeContextCurrent()

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	if err != nil {
		return err
	}

	libgl.Env = libgl.GetEnvironment()
	libgl.State = libgl.NewStateManager()
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	return nil
}

// runOnMain runs fn on the thread owning the context. fn must not call
// t.Fatal or similar.
func runOnMain(t *testing.T, fn func()) {
	t.Helper()
	if !glAvailable {
		t.Skip("no OpenGL 4.5 context available")
	}
	onMain <- fn
	<-onMainDone
}

func readTexture(tex libgl.UnboundTexture) *libio.FloatImage {
	img := libio.NewFloatImage(nil, tex.Width(), tex.Height())
	tex.Read(gl.RGBA, img.Pix)
	return img
}
