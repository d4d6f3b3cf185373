package vitals

import "math"

// sine returns n samples of base + amp*sin(2πft + phase) taken every 100ms.
func sine(n int, f, amp, phase float64) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(50000 + amp*math.Sin(2*math.Pi*f*0.1*float64(i)+phase))
	}
	return out
}

func windowOf(ir, red []uint32) *Window {
	w := NewWindow(len(ir))
	for i := range ir {
		w.Add(Sample{IR: ir[i], Red: red[i]})
	}
	return w
}

func constant(n int, v uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
