package main

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// KeyInput is the part of the input state the controls read.
type KeyInput interface {
	IsKeyDown(key glfw.Key) bool
	IsKeyTap(key glfw.Key) bool
}

type InputManager interface {
	KeyInput
	TimeDelta() float32
	Update(window *glfw.Window)
}

type input struct {
	curr inputState
	prev inputState
}

type inputState struct {
	time float32
	keys []bool
}

func NewInputManager(window *glfw.Window) InputManager {
	i := &input{
		curr: inputState{keys: make([]bool, glfw.KeyLast+1)},
		prev: inputState{keys: make([]bool, glfw.KeyLast+1)},
	}

	i.Update(window)
	// dTime must not be zero on the first frame
	i.prev.time = i.curr.time - 1./60.
	copy(i.prev.keys, i.curr.keys)

	return i
}

func (i *input) TimeDelta() float32 {
	return i.curr.time - i.prev.time
}

func (i *input) IsKeyDown(key glfw.Key) bool {
	if key < 0 || int(key) >= len(i.curr.keys) {
		return false
	}
	return i.curr.keys[key]
}

// IsKeyTap reports a press edge: down now, up on the previous frame.
func (i *input) IsKeyTap(key glfw.Key) bool {
	if key < 0 || int(key) >= len(i.curr.keys) {
		return false
	}
	return i.curr.keys[key] && !i.prev.keys[key]
}

func (i *input) Update(window *glfw.Window) {
	keys := i.prev.keys
	i.prev = i.curr

	for key := int(glfw.KeySpace); key <= int(glfw.KeyLast); key++ {
		keys[key] = window.GetKey(glfw.Key(key)) != glfw.Release
	}

	i.curr = inputState{
		time: float32(glfw.GetTime()),
		keys: keys,
	}
}
