// Package input defines the bus-facing controller interface: the NES
// controller port, reduced to the two operations the bus actually forwards
// ($4016 writes as strobe, $4016/$4017 reads as serialized button data).
package input

// Device is the external collaborator the bus forwards controller register
// traffic to.
type Device interface {
	// ReadPort returns one bit of button state (LSB) for the given port
	// (0 or 1), OR'd with the controller's open-bus pattern on the upper
	// bits, per real 2A03 wiring.
	ReadPort(port int) uint8
	// Strobe latches the current button state into the shift registers
	// while held true; a false transition begins shifting bits out.
	Strobe(on bool)
}

// Recorder is a scriptable controller: callers set each port's eight-button
// state with SetButtons and Recorder serializes it exactly like a real pad,
// making it usable both as a thin adapter over a real input backend and as
// a deterministic input source in tests.
type Recorder struct {
	strobe  bool
	buttons [2]uint8
	shift   [2]uint8
}

// SetButtons latches the eight-button state (bit0=A, bit1=B, bit2=Select,
// bit3=Start, bit4=Up, bit5=Down, bit6=Left, bit7=Right) that will be read
// back the next time the port is strobed.
func (r *Recorder) SetButtons(port int, state uint8) {
	if port < 0 || port > 1 {
		return
	}
	r.buttons[port] = state
}

func (r *Recorder) Strobe(on bool) {
	r.strobe = on
	if on {
		r.shift[0] = r.buttons[0]
		r.shift[1] = r.buttons[1]
	}
}

func (r *Recorder) ReadPort(port int) uint8 {
	if port < 0 || port > 1 {
		return 0x40
	}
	if r.strobe {
		r.shift[port] = r.buttons[port]
	}
	bit := r.shift[port] & 1
	r.shift[port] = (r.shift[port] >> 1) | 0x80 // reads past the 8th return 1
	return 0x40 | bit
}
