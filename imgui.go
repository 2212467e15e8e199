package main

import (
	"unsafe"

	"oreglow/effects"
	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/inkyblackness/imgui-go/v4"
)

type ImGui struct {
	IO        imgui.IO
	context   *imgui.Context
	FrameTime float32
	window    *glfw.Window
	vao       libgl.UnboundVertexArray
	vbo       libgl.UnboundBuffer
	ebo       libgl.UnboundBuffer
	atlas     libgl.UnboundTexture
	shader    libgl.UnboundShaderPipeline
}

func NewImGui(window *glfw.Window, shader libgl.UnboundShaderPipeline) *ImGui {
	context := imgui.CreateContext(nil)

	io := imgui.CurrentIO()
	dispWidth, dispHeight := window.GetSize()
	io.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})
	io.SetIniFilename("")
	imgui.StyleColorsDark()

	vao := libgl.NewVertexArray()
	vao.SetDebugLabel("imgui")
	_, vertexOffsetPos, vertexOffsetUv, vertexOffsetCol := imgui.VertexBufferLayout()
	vao.Layout(0, 0, 2, gl.FLOAT, false, vertexOffsetPos)
	vao.Layout(0, 1, 2, gl.FLOAT, false, vertexOffsetUv)
	vao.Layout(0, 2, 4, gl.UNSIGNED_BYTE, true, vertexOffsetCol)

	image := io.Fonts().TextureDataRGBA32()
	pixels := unsafe.Slice((*byte)(image.Pixels), image.Width*image.Height*4)
	atlas := libgl.NewTexture()
	atlas.SetDebugLabel("imgui font atlas")
	atlas.Allocate(1, gl.RGBA8, image.Width, image.Height)
	atlas.Load(0, image.Width, image.Height, gl.RGBA, pixels)
	atlas.FilterMode(gl.LINEAR, gl.LINEAR)
	io.Fonts().SetTextureID(imgui.TextureID(atlas.Id()))

	window.SetCursorPosCallback(func(w *glfw.Window, mx, my float64) {
		io.SetMousePosition(imgui.Vec2{X: float32(mx), Y: float32(my)})
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		io.SetMouseButtonDown(int(button), action == glfw.Press)
	})
	window.SetScrollCallback(func(w *glfw.Window, x, y float64) {
		io.AddMouseWheelDelta(float32(x), float32(y))
	})
	window.SetCharCallback(func(w *glfw.Window, char rune) {
		io.AddInputCharacters(string(char))
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		if action == glfw.Press {
			io.KeyPress(int(key))
		}
		if action == glfw.Release {
			io.KeyRelease(int(key))
		}

		// Modifiers are not reliable across systems
		io.KeyCtrl(int(glfw.KeyLeftControl), int(glfw.KeyRightControl))
		io.KeyShift(int(glfw.KeyLeftShift), int(glfw.KeyRightShift))
		io.KeyAlt(int(glfw.KeyLeftAlt), int(glfw.KeyRightAlt))
		io.KeySuper(int(glfw.KeyLeftSuper), int(glfw.KeyRightSuper))
	})

	io.KeyMap(imgui.KeyTab, int(glfw.KeyTab))
	io.KeyMap(imgui.KeyLeftArrow, int(glfw.KeyLeft))
	io.KeyMap(imgui.KeyRightArrow, int(glfw.KeyRight))
	io.KeyMap(imgui.KeyUpArrow, int(glfw.KeyUp))
	io.KeyMap(imgui.KeyDownArrow, int(glfw.KeyDown))
	io.KeyMap(imgui.KeyHome, int(glfw.KeyHome))
	io.KeyMap(imgui.KeyEnd, int(glfw.KeyEnd))
	io.KeyMap(imgui.KeyDelete, int(glfw.KeyDelete))
	io.KeyMap(imgui.KeyBackspace, int(glfw.KeyBackspace))
	io.KeyMap(imgui.KeyEnter, int(glfw.KeyEnter))
	io.KeyMap(imgui.KeyEscape, int(glfw.KeyEscape))

	return &ImGui{
		IO:        io,
		context:   context,
		FrameTime: float32(glfw.GetTime()),
		window:    window,
		vao:       vao,
		atlas:     atlas,
		shader:    shader,
	}
}

// WantsKeyboard is true while a widget has keyboard focus.
func (gui *ImGui) WantsKeyboard() bool {
	return gui.IO.WantCaptureKeyboard()
}

// ensureCapacity replaces buf by a larger dynamic buffer when size does not fit.
func ensureCapacity(buf libgl.UnboundBuffer, size int, label string) (libgl.UnboundBuffer, bool) {
	if buf != nil && buf.Size() >= size {
		return buf, false
	}
	if buf != nil {
		buf.Delete()
	}
	// grow geometrically
	capacity := max(size, 1024)
	if buf != nil {
		capacity = max(size, buf.Size()*2)
	}
	next := libgl.NewBuffer()
	next.SetDebugLabel(label)
	next.Reserve(capacity, gl.DYNAMIC_STORAGE_BIT)
	return next, true
}

func (gui *ImGui) Draw() {
	defer libgl.PushDebugGroup("Draw ImGui")()

	io := imgui.CurrentIO()

	dispWidth, dispHeight := gui.window.GetSize()
	fbWidth, fbHeight := gui.window.GetFramebufferSize()
	if dispWidth <= 0 || dispHeight <= 0 {
		imgui.Render()
		return
	}
	libgl.State.BindDrawFramebuffer(libgl.DefaultFramebuffer)
	libgl.State.Viewport(0, 0, fbWidth, fbHeight)
	io.SetDisplaySize(imgui.Vec2{X: float32(dispWidth), Y: float32(dispHeight)})
	ortho := mgl32.Ortho2D(0, float32(dispWidth), float32(dispHeight), 0)

	time := float32(glfw.GetTime())
	io.SetDeltaTime(max(time-gui.FrameTime, 1e-4))
	gui.FrameTime = time

	gui.vao.Bind()
	gui.shader.Bind()
	gui.shader.VertexStage().SetUniform("u_proj_mat", ortho)

	libgl.State.SetEnabled(libgl.Blend, libgl.ScissorTest)
	libgl.State.BlendEquation(libgl.BlendFuncAdd)
	libgl.State.BlendFunc(libgl.BlendSrcAlpha, libgl.BlendOneMinusSrcAlpha)
	libgl.State.ActiveTexture(0)
	libgl.State.BindSampler(0, 0)

	imgui.Render()
	drawData := imgui.RenderedDrawData()
	drawData.ScaleClipRects(imgui.Vec2{
		X: float32(fbWidth) / float32(dispWidth),
		Y: float32(fbHeight) / float32(dispHeight),
	})

	vertexSize, _, _, _ := imgui.VertexBufferLayout()
	indexSize := imgui.IndexBufferLayout()
	var indexType uint32
	switch indexSize {
	case 1:
		indexType = gl.UNSIGNED_BYTE
	case 2:
		indexType = gl.UNSIGNED_SHORT
	case 4:
		indexType = gl.UNSIGNED_INT
	}

	for _, list := range drawData.CommandLists() {
		vertexBuffer, vertexBufferSize := list.VertexBuffer()
		var grown bool
		gui.vbo, grown = ensureCapacity(gui.vbo, vertexBufferSize, "imgui vertices")
		if grown {
			gui.vao.BindBuffer(0, gui.vbo, 0, vertexSize)
		}
		gui.vbo.WriteRaw(0, vertexBufferSize, vertexBuffer)

		indexBuffer, indexBufferSize := list.IndexBuffer()
		gui.ebo, grown = ensureCapacity(gui.ebo, indexBufferSize, "imgui indices")
		if grown {
			gui.vao.BindElementBuffer(gui.ebo)
		}
		gui.ebo.WriteRaw(0, indexBufferSize, indexBuffer)

		for _, cmd := range list.Commands() {
			if cmd.HasUserCallback() {
				cmd.CallUserCallback(list)
				continue
			}
			libgl.State.BindTexture(gl.TEXTURE_2D, uint32(cmd.TextureID()))
			clipRect := cmd.ClipRect()
			x, y := int(clipRect.X), fbHeight-int(clipRect.W)
			if y <= 0 {
				y = 0
			}
			libgl.State.Scissor(x, y, int(clipRect.Z-clipRect.X), int(clipRect.W-clipRect.Y))
			gl.DrawElementsBaseVertexWithOffset(gl.TRIANGLES, int32(cmd.ElementCount()), indexType, uintptr(cmd.IndexOffset()*indexSize), int32(cmd.VertexOffset()))
		}
	}

	libgl.State.Disable(libgl.ScissorTest)
}

func (gui *ImGui) Delete() {
	if gui.vbo != nil {
		gui.vbo.Delete()
	}
	if gui.ebo != nil {
		gui.ebo.Delete()
	}
	gui.vao.Delete()
	gui.atlas.Delete()
	gui.shader.Delete()
	gui.context.Destroy()
}

// PanelResult reports what the settings panel changed this frame.
type PanelResult struct {
	Changed bool
	Capture bool
}

// SettingsPanel mirrors the keyboard controls with widgets.
func SettingsPanel(c *Controls, ores []Ore, shaderName string) (res PanelResult) {
	imgui.SetNextWindowPosV(imgui.Vec2{X: 10, Y: 10}, imgui.ConditionFirstUseEver, imgui.Vec2{})
	imgui.Begin("Glowing Ores")
	defer imgui.End()

	if len(ores) > 0 && imgui.BeginCombo("Ore", ores[c.OreIndex].Name) {
		for i := range ores {
			if imgui.SelectableV(ores[i].Name, i == c.OreIndex, 0, imgui.Vec2{}) {
				c.OreIndex = i
				res.Changed = true
			}
		}
		imgui.EndCombo()
	}
	res.Changed = imgui.SliderFloat("Ambient", &c.Ambient, 0, 1) || res.Changed

	imgui.Separator()
	res.Changed = imgui.Checkbox("Bloom", &c.BloomEnabled) || res.Changed
	res.Changed = imgui.SliderFloat("Intensity", &c.Bloom.Intensity, 0, maxIntensity) || res.Changed
	res.Changed = imgui.SliderFloat("Threshold", &c.Bloom.Threshold, 0, 1) || res.Changed
	passes := int32(c.Bloom.Passes)
	if imgui.SliderInt("Blur passes", &passes, 0, maxBlurPasses) {
		c.Bloom.Passes = int(passes)
		res.Changed = true
	}
	if imgui.BeginCombo("Extract", c.Extract.String()) {
		for _, source := range []effects.ExtractSource{effects.ExtractSceneColor, effects.ExtractBrightMask} {
			if imgui.SelectableV(source.String(), source == c.Extract, 0, imgui.Vec2{}) {
				c.Extract = source
				res.Changed = true
			}
		}
		imgui.EndCombo()
	}

	imgui.Separator()
	imgui.Text("Shader: " + shaderName)
	res.Capture = imgui.Button("Capture (F12)")

	c.Clamp()
	return res
}
