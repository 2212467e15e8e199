package libutil

import (
	"oreglow/libgl"

	"github.com/go-gl/gl/v4.5-core/gl"
)

// QuadVertices covers NDC [-1,1]² as two triangles, interleaved as
// vec2 position, vec2 uv.
var QuadVertices = [6 * 4]float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, -1, 0, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

// Quad is a full screen quad. It is immutable once created.
type Quad struct {
	vbo libgl.UnboundBuffer
	vao libgl.UnboundVertexArray
}

func NewQuad() *Quad {
	vbo := libgl.NewBuffer()
	vbo.SetDebugLabel("quad")
	vbo.Allocate(QuadVertices[:], 0)

	vao := libgl.NewVertexArray()
	vao.SetDebugLabel("quad")
	vao.Layout(0, 0, 2, gl.FLOAT, false, 0)
	vao.Layout(0, 1, 2, gl.FLOAT, false, 2*4)
	vao.BindBuffer(0, vbo, 0, 4*4)

	return &Quad{vbo: vbo, vao: vao}
}

func (q *Quad) Draw() {
	q.vao.Bind()
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(QuadVertices)/4))
}

func (q *Quad) Delete() {
	q.vao.Delete()
	q.vbo.Delete()
}
