package effects

import (
	"errors"
	"fmt"
)

// ErrFrameProtocol is reported when the pipeline methods are called out of
// order. The pipeline logs it and recovers.
var ErrFrameProtocol = errors.New("frame protocol violation")

type frameState int

const (
	stateIdle frameState = iota
	stateRecording
)

func (s frameState) String() string {
	if s == stateRecording {
		return "recording"
	}
	return "idle"
}

type frameProtocol struct {
	state frameState
}

func (p *frameProtocol) violation(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrFrameProtocol, op, p.state)
}

// begin always ends up recording.
func (p *frameProtocol) begin() (err error) {
	if p.state == stateRecording {
		err = p.violation("BeginRender")
	}
	p.state = stateRecording
	return err
}

// end always ends up idle.
func (p *frameProtocol) end() (err error) {
	if p.state != stateRecording {
		err = p.violation("EndRender")
	}
	p.state = stateIdle
	return err
}

// post checks that a post processing op starts from idle. A pending recording
// is ended.
func (p *frameProtocol) post(op string) (err error) {
	if p.state == stateRecording {
		err = p.violation(op)
	}
	p.state = stateIdle
	return err
}

func (p *frameProtocol) recording() bool {
	return p.state == stateRecording
}
