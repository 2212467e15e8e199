package libgl

import (
	"fmt"
	"log"
	"log/slog"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

var shaderMetaPattern = regexp.MustCompile(`(?m)^\/\/meta:(\w+)(.+)$`)

// ShaderBuildError reports a shader stage that failed to compile or link.
type ShaderBuildError struct {
	Name  string
	Stage string
	Log   string
}

func (e *ShaderBuildError) Error() string {
	return fmt.Sprintf("failed to build %s shader %q: %s", e.Stage, e.Name, strings.TrimSpace(e.Log))
}

type program struct {
	uniformLocations map[string]int32
	glId             uint32
	name             string
	source           string
	stage            uint32
}

// ShaderProgram is a separable program holding a single stage.
type ShaderProgram interface {
	LabeledGlObject
	Id() uint32
	Name() string
	Stage() uint32
	Compile() error
	Delete()
	GetUniformLocation(name string) int32
	SetUniform(name string, value any)
}

// NewShader parses a shader source. The name is taken from a "//meta:name"
// line when present.
func NewShader(source string, stage uint32) ShaderProgram {
	name := "untitled"
	for _, match := range shaderMetaPattern.FindAllStringSubmatch(source, -1) {
		key, value := match[1], strings.TrimSpace(match[2])
		if strings.EqualFold(key, "name") {
			name = value
		}
	}

	return &program{
		name:   name,
		stage:  stage,
		source: source,
	}
}

func stageName(stage uint32) string {
	switch stage {
	case gl.VERTEX_SHADER:
		return "vertex"
	case gl.FRAGMENT_SHADER:
		return "fragment"
	case gl.GEOMETRY_SHADER:
		return "geometry"
	case gl.COMPUTE_SHADER:
		return "compute"
	}
	return fmt.Sprintf("0x%04x", stage)
}

func (prog *program) Name() string {
	return prog.name
}

func (prog *program) Stage() uint32 {
	return prog.stage
}

func (prog *program) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM, prog.glId, label)
}

// Compile builds the program. On failure the previous program, if any, is
// kept.
func (prog *program) Compile() error {
	cStrs, free := gl.Strs(prog.source + "\x00")
	id := gl.CreateShaderProgramv(prog.stage, 1, cStrs)
	free()

	var ok int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		info := readProgramInfoLog(id)
		gl.DeleteProgram(id)
		return &ShaderBuildError{Name: prog.name, Stage: stageName(prog.stage), Log: info}
	}

	if prog.glId != 0 {
		gl.DeleteProgram(prog.glId)
	}
	prog.glId = id
	prog.uniformLocations = map[string]int32{}
	setObjectLabel(gl.PROGRAM, id, prog.name)
	return nil
}

func (prog *program) Id() uint32 {
	return prog.glId
}

func (prog *program) Delete() {
	if prog.glId == 0 {
		return
	}
	gl.DeleteProgram(prog.glId)
	prog.glId = 0
}

func readProgramInfoLog(id uint32) string {
	var logLength int32
	gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
	if logLength == 0 {
		return ""
	}

	info := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(id, logLength, nil, gl.Str(info))
	return strings.TrimRight(info, "\x00")
}

// GetUniformLocation caches lookups. A missing uniform is reported once and
// then cached as -1.
func (prog *program) GetUniformLocation(name string) int32 {
	if location, ok := prog.uniformLocations[name]; ok {
		return location
	}

	location := gl.GetUniformLocation(prog.glId, gl.Str(name+"\x00"))
	prog.uniformLocations[name] = location

	if location == -1 {
		slog.Warn("uniform not found", "shader", prog.name, "uniform", name)
	}

	return location
}

func (prog *program) SetUniform(name string, value any) {
	location := prog.GetUniformLocation(name)
	if location == -1 {
		return
	}
	setProgramUniformAny(prog.glId, location, value)
}

func setProgramUniformAny(prog uint32, location int32, value any) {
	for refVal := reflect.ValueOf(value); refVal.Kind() == reflect.Ptr; refVal = reflect.ValueOf(value) {
		value = refVal.Elem().Interface()
	}

	switch v := value.(type) {
	case bool:
		var i int32
		if v {
			i = 1
		}
		gl.ProgramUniform1i(prog, location, i)
	case float32:
		gl.ProgramUniform1f(prog, location, v)
	case float64:
		gl.ProgramUniform1f(prog, location, float32(v))
	case int:
		gl.ProgramUniform1i(prog, location, int32(v))
	case int32:
		gl.ProgramUniform1i(prog, location, v)
	case int64:
		gl.ProgramUniform1i(prog, location, int32(v))
	case uint:
		gl.ProgramUniform1ui(prog, location, uint32(v))
	case uint32:
		gl.ProgramUniform1ui(prog, location, v)
	case mgl32.Vec2:
		gl.ProgramUniform2f(prog, location, v.X(), v.Y())
	case mgl32.Vec3:
		gl.ProgramUniform3f(prog, location, v.X(), v.Y(), v.Z())
	case mgl32.Vec4:
		gl.ProgramUniform4f(prog, location, v.X(), v.Y(), v.Z(), v.W())
	case mgl32.Mat3:
		gl.ProgramUniformMatrix3fv(prog, location, 1, false, &v[0])
	case mgl32.Mat4:
		gl.ProgramUniformMatrix4fv(prog, location, 1, false, &v[0])
	case mgl64.Vec3:
		gl.ProgramUniform3d(prog, location, v.X(), v.Y(), v.Z())
	case mgl64.Mat4:
		gl.ProgramUniformMatrix4dv(prog, location, 1, false, &v[0])
	default:
		log.Panicf("unsupported uniform type %T", value)
	}
}

type shaderPipeline struct {
	glId      uint32
	vertStage ShaderProgram
	fragStage ShaderProgram
}

type UnboundShaderPipeline interface {
	LabeledGlObject
	Id() uint32
	Bind() BoundShaderPipeline
	VertexStage() ShaderProgram
	FragmentStage() ShaderProgram
	// Attach replaces the program used for the stages in its stage bit.
	Attach(program ShaderProgram)
	// Rebuild compiles source for the given stage and swaps it in. When
	// compilation fails the current program stays attached.
	Rebuild(stage uint32, source string) error
	Delete()
}

type BoundShaderPipeline interface {
	UnboundShaderPipeline
}

// NewShaderPipeline compiles both stages and combines them. Compilation errors
// are returned as *ShaderBuildError and nothing is left allocated.
func NewShaderPipeline(vertexSrc, fragmentSrc string) (UnboundShaderPipeline, error) {
	vsh := NewShader(vertexSrc, gl.VERTEX_SHADER)
	if err := vsh.Compile(); err != nil {
		return nil, err
	}
	fsh := NewShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err := fsh.Compile(); err != nil {
		vsh.Delete()
		return nil, err
	}

	var id uint32
	gl.CreateProgramPipelines(1, &id)
	pipeline := &shaderPipeline{glId: id}
	pipeline.Attach(vsh)
	pipeline.Attach(fsh)
	return pipeline, nil
}

func stageBit(stage uint32) uint32 {
	switch stage {
	case gl.VERTEX_SHADER:
		return gl.VERTEX_SHADER_BIT
	case gl.FRAGMENT_SHADER:
		return gl.FRAGMENT_SHADER_BIT
	case gl.GEOMETRY_SHADER:
		return gl.GEOMETRY_SHADER_BIT
	}
	log.Panicf("%d is not a valid pipeline stage", stage)
	return 0
}

func (p *shaderPipeline) Attach(program ShaderProgram) {
	gl.UseProgramStages(p.glId, stageBit(program.Stage()), program.Id())
	switch program.Stage() {
	case gl.VERTEX_SHADER:
		p.vertStage = program
	case gl.FRAGMENT_SHADER:
		p.fragStage = program
	}
}

func (p *shaderPipeline) Rebuild(stage uint32, source string) error {
	next := NewShader(source, stage)
	if err := next.Compile(); err != nil {
		return err
	}
	var prev ShaderProgram
	switch stage {
	case gl.VERTEX_SHADER:
		prev = p.vertStage
	case gl.FRAGMENT_SHADER:
		prev = p.fragStage
	}
	p.Attach(next)
	if prev != nil {
		prev.Delete()
	}
	return nil
}

func (p *shaderPipeline) Id() uint32 {
	return p.glId
}

func (p *shaderPipeline) SetDebugLabel(label string) {
	setObjectLabel(gl.PROGRAM_PIPELINE, p.glId, label)
}

func (p *shaderPipeline) Bind() BoundShaderPipeline {
	State.BindProgramPipeline(p.glId)
	return BoundShaderPipeline(p)
}

func (p *shaderPipeline) VertexStage() ShaderProgram {
	return p.vertStage
}

func (p *shaderPipeline) FragmentStage() ShaderProgram {
	return p.fragStage
}

// Delete releases the pipeline and both of its programs.
func (p *shaderPipeline) Delete() {
	if p.glId == 0 {
		return
	}
	State.ForgetProgramPipeline(p.glId)
	gl.DeleteProgramPipelines(1, &p.glId)
	p.glId = 0
	if p.vertStage != nil {
		p.vertStage.Delete()
	}
	if p.fragStage != nil {
		p.fragStage.Delete()
	}
}
