package effects

import (
	_ "embed"
	"fmt"
	"unsafe"

	"oreglow/libio"

	"github.com/Qendolin/go-opencl/cl"
	"golang.org/x/exp/slices"
)

//go:embed bloom.cl
var openclBloomSrc string

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

type clProcessor struct {
	device    *cl.Device
	context   *cl.Context
	queue     *cl.CommandQueue
	program   *cl.Program
	extract   *cl.Kernel
	blur      *cl.Kernel
	composite *cl.Kernel
}

// pickDevice prefers the given type, then the device with the most compute
// units times clock.
func pickDevice(preferred DeviceType) (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferred && b.Type() != preferred {
			return -1
		}
		if a.Type() != preferred && b.Type() == preferred {
			return 1
		}
		return b.MaxComputeUnits()*b.MaxClockFrequency() - a.MaxComputeUnits()*a.MaxClockFrequency()
	})

	return devices[0], nil
}

// NewClProcessor builds the bloom kernels for the best matching device.
func NewClProcessor(preferred DeviceType) (proc Processor, err error) {
	device, err := pickDevice(preferred)
	if err != nil {
		return nil, err
	}

	p := &clProcessor{device: device}
	defer func() {
		if err != nil {
			p.Release()
		}
	}()

	p.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}
	p.queue, err = p.context.CreateCommandQueue(device, 0)
	if err != nil {
		return nil, err
	}
	p.program, err = p.context.CreateProgramWithSource([]string{openclBloomSrc})
	if err != nil {
		return nil, err
	}
	if err = p.program.BuildProgram(nil, ""); err != nil {
		return nil, fmt.Errorf("could not build bloom kernels: %w", err)
	}
	if p.extract, err = p.program.CreateKernel("bloom_extract"); err != nil {
		return nil, err
	}
	if p.blur, err = p.program.CreateKernel("bloom_blur"); err != nil {
		return nil, err
	}
	if p.composite, err = p.program.CreateKernel("bloom_composite"); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *clProcessor) Release() {
	for _, k := range []*cl.Kernel{p.extract, p.blur, p.composite} {
		if k != nil {
			k.Release()
		}
	}
	p.extract, p.blur, p.composite = nil, nil, nil
	if p.program != nil {
		p.program.Release()
		p.program = nil
	}
	if p.queue != nil {
		p.queue.Release()
		p.queue = nil
	}
	if p.context != nil {
		p.context.Release()
		p.context = nil
	}
}

var rgbaFloat = cl.ImageFormat{
	ChannelOrder:    cl.ChannelOrderRGBA,
	ChannelDataType: cl.ChannelDataTypeFloat,
}

func (p *clProcessor) createImage(flags cl.MemFlag, width, height int, src *libio.FloatImage) (*cl.MemObject, error) {
	desc := cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  width,
		Height: height,
	}
	if src == nil {
		return p.context.CreateImage(flags, rgbaFloat, desc, width*height*libio.Channels*4, nil)
	}
	return p.context.CreateImage(flags|cl.MemCopyHostPtr, rgbaFloat, desc, src.Bytes(), src.Pointer())
}

func (p *clProcessor) run(kernel *cl.Kernel, width, height int) error {
	local := []int{16, 16}
	global := []int{roundUpKernelSize(local[0], width), roundUpKernelSize(local[1], height)}
	_, err := p.queue.EnqueueNDRangeKernel(kernel, []int{0, 0}, global, local, nil)
	return err
}

// setArgs stops at the first error
func setArgs(kernel *cl.Kernel, images []*cl.MemObject, rest func(index int) error) error {
	for i, img := range images {
		if err := kernel.SetArgBuffer(i, img); err != nil {
			return err
		}
	}
	if rest == nil {
		return nil
	}
	return rest(len(images))
}

func (p *clProcessor) Process(frame Frame, settings BloomSettings) (*libio.FloatImage, error) {
	src, threshold, err := frame.extractInput(settings)
	if err != nil {
		return nil, err
	}
	w, h := src.Width, src.Height

	var images []*cl.MemObject
	defer func() {
		for _, img := range images {
			img.Release()
		}
	}()
	newImage := func(flags cl.MemFlag, data *libio.FloatImage) *cl.MemObject {
		if err != nil {
			return nil
		}
		var img *cl.MemObject
		img, err = p.createImage(flags, w, h, data)
		if err == nil {
			images = append(images, img)
		}
		return img
	}

	sceneImg := newImage(cl.MemReadOnly, frame.Scene)
	extractImg := sceneImg
	if src != frame.Scene {
		extractImg = newImage(cl.MemReadOnly, src)
	}
	pingPong := [2]*cl.MemObject{newImage(cl.MemReadWrite, nil), newImage(cl.MemReadWrite, nil)}
	dstImg := newImage(cl.MemWriteOnly, nil)
	if err != nil {
		return nil, err
	}

	err = setArgs(p.extract, []*cl.MemObject{extractImg, pingPong[0]}, func(i int) error {
		return p.extract.SetArgFloat32(i, threshold)
	})
	if err == nil {
		err = p.run(p.extract, w, h)
	}
	step := settings.TexelStep(h)
	for _, pass := range blurSchedule(settings.Passes) {
		if err != nil {
			break
		}
		horizontal := int32(0)
		if pass.horizontal {
			horizontal = 1
		}
		err = setArgs(p.blur, []*cl.MemObject{pingPong[pass.src], pingPong[pass.dst]}, func(i int) error {
			if err := p.blur.SetArgInt32(i, horizontal); err != nil {
				return err
			}
			return p.blur.SetArgFloat32(i+1, step)
		})
		if err == nil {
			err = p.run(p.blur, w, h)
		}
	}
	if err == nil {
		err = setArgs(p.composite, []*cl.MemObject{sceneImg, pingPong[finalPingPong(settings.Passes)], dstImg}, func(i int) error {
			return p.composite.SetArgFloat32(i, settings.Intensity)
		})
	}
	if err == nil {
		err = p.run(p.composite, w, h)
	}
	if err != nil {
		return nil, fmt.Errorf("bloom kernels failed: %w", err)
	}

	result := libio.NewFloatImage(nil, w, h)
	_, err = p.queue.EnqueueReadImage(dstImg, true, [3]int{}, [3]int{w, h, 1}, 0, 0, unsafe.Pointer(&result.Pix[0]), nil)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}
