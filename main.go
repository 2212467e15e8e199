package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"
	"unsafe"

	"oreglow/effects"
	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/pkg/profile"
)

var Arguments struct {
	ConfigPath                 string
	CaptureDir                 string
	Profile                    bool
	EnableCompatibilityProfile bool
}

func main() {
	flag.StringVar(&Arguments.ConfigPath, "config", "config.toml", "TOML config file")
	flag.StringVar(&Arguments.CaptureDir, "capture-dir", "captures", "where F12 writes frame captures")
	flag.BoolVar(&Arguments.Profile, "profile", false, "write a CPU profile to the working directory")
	flag.BoolVar(&Arguments.EnableCompatibilityProfile, "enable-compatibility-profile", Arguments.EnableCompatibilityProfile, "")
	flag.Parse()

	cfg, err := LoadConfig(Arguments.ConfigPath)
	check(err)
	level, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if Arguments.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	runtime.LockOSThread()
	err = glfw.Init()
	check(err)
	defer glfw.Terminate()

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 5)
	glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	if Arguments.EnableCompatibilityProfile {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	} else {
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	}
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	check(err)
	window.MakeContextCurrent()
	if cfg.Window.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	err = gl.InitWithProcAddrFunc(func(name string) unsafe.Pointer {
		addr := glfw.GetProcAddress(name)
		if addr == nil {
			return unsafe.Pointer(uintptr(0xffff_ffff_ffff_ffff))
		}
		return addr
	})
	check(err)

	libgl.State = libgl.NewStateManager()
	libgl.Env = libgl.GetEnvironment()
	libgl.EnableDebugOutput(slog.Default().With("component", "gl"))
	slog.Info("OpenGL context", "vendor", libgl.Env.Vendor, "renderer", libgl.Env.Renderer, "version", libgl.Env.Version)

	input := NewInputManager(window)
	controls := NewControls(cfg)
	ores := OresFromConfig(cfg.Ores)

	fbWidth, fbHeight := window.GetFramebufferSize()
	bloom, err := effects.NewBloomPipeline(fbWidth, fbHeight)
	check(err)
	defer bloom.Release()
	bloom.ClearColor = mgl32.Vec3(cfg.Scene.ClearColor).Vec4(1)

	cam := NewCamera(cfg.Scene, fbWidth, fbHeight)
	shaders := ShaderSource{Dir: cfg.Scene.ShaderDir}
	scene, err := NewOreScene(cfg.Scene, cam, shaders)
	check(err)
	defer scene.Delete()

	imguiShader, err := shaders.Pipeline("imgui")
	check(err)
	gui := NewImGui(window, imguiShader)
	defer gui.Delete()

	watcher, err := WatchShaders(cfg.Scene.ShaderDir)
	if err != nil {
		slog.Warn("shader hot reload disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		bloom.Resize(width, height)
		cam.Resize(width, height)
	})

	status := ""
	for !window.ShouldClose() {
		glfw.PollEvents()
		input.Update(window)

		if watcher != nil {
			for _, file := range watcher.Poll() {
				reloadShader(scene, file)
			}
		}

		var actions ControlActions
		if !gui.WantsKeyboard() {
			actions = controls.Update(input)
		}
		if actions.Quit {
			window.SetShouldClose(true)
		}

		imgui.NewFrame()
		panel := SettingsPanel(controls, ores, scene.ShaderName())
		bloom.ExtractSource = controls.Extract

		ore := &ores[controls.OreIndex]
		if line := controls.Status(ore.Name); line != status {
			slog.Info(line)
			status = line
		}

		bloom.BeginRender()
		scene.Draw(ore, controls.Ambient, glfw.GetTime())
		bloom.EndRender()
		if controls.BloomEnabled {
			bloom.ApplyBloom(controls.Bloom)
		} else {
			bloom.RenderToScreen()
		}

		// before the HUD so it stays out of the capture
		if actions.Capture || panel.Capture {
			width, height := bloom.Size()
			err := CaptureFrame(Arguments.CaptureDir,
				ReadTexture(bloom.SceneTexture()),
				ReadTexture(bloom.BrightTexture()),
				ReadScreen(width, height))
			if err != nil {
				slog.Error("capture failed", "err", err)
			}
		}

		gui.Draw()
		window.SwapBuffers()
	}
}

func reloadShader(scene *OreScene, file string) {
	if !scene.Uses(file) {
		slog.Debug("ignoring shader change", "file", file, "active", scene.ShaderName())
		return
	}
	if err := scene.ReloadShader(file); err != nil {
		slog.Error("shader reload failed, keeping previous program", "file", file, "err", err)
		return
	}
	slog.Info("shader reloaded", "file", file)
}

func check(err error) {
	if err != nil {
		slog.Error("fatal", "err", err)
		panic(err)
	}
}
