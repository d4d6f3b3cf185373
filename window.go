package vitals

// MinSamples is the smallest number of samples the estimators accept.
const MinSamples = 25

// Sample is a single reading of the infrared and red LED channels. Only the
// lower 18 bits of each channel are significant.
type Sample struct {
	IR  uint32
	Red uint32
}

// Window is a fixed capacity FIFO of samples. When full, adding a sample
// evicts the oldest one.
type Window struct {
	buffer []Sample
	idx    int // next write position
	n      int
}

// NewWindow returns an empty window holding up to size samples. Sizes below
// MinSamples are raised to MinSamples.
func NewWindow(size int) *Window {
	if size < MinSamples {
		size = MinSamples
	}
	return &Window{
		buffer: make([]Sample, size),
	}
}

// Add appends entries to the window in order.
func (w *Window) Add(entries ...Sample) {
	for _, e := range entries {
		w.buffer[w.idx] = e
		w.idx++
		w.idx %= len(w.buffer)

		if w.n < len(w.buffer) {
			w.n++
		}
	}
}

// Len returns the number of samples held.
func (w *Window) Len() int {
	return w.n
}

// Cap returns the capacity of the window.
func (w *Window) Cap() int {
	return len(w.buffer)
}

// At returns the i-th sample, where 0 is the oldest one.
func (w *Window) At(i int) Sample {
	if i < 0 || i >= w.n {
		panic("vitals: window index out of range")
	}
	start := (w.idx - w.n + len(w.buffer)) % len(w.buffer)
	return w.buffer[(start+i)%len(w.buffer)]
}

// IR returns a copy of the infrared channel, oldest first.
func (w *Window) IR() []uint32 {
	out := make([]uint32, w.n)
	for i := range out {
		out[i] = w.At(i).IR
	}
	return out
}

// Red returns a copy of the red channel, oldest first.
func (w *Window) Red() []uint32 {
	out := make([]uint32, w.n)
	for i := range out {
		out[i] = w.At(i).Red
	}
	return out
}

// Last returns the newest sample. It returns false if the window is empty.
func (w *Window) Last() (Sample, bool) {
	if w.n == 0 {
		return Sample{}, false
	}
	return w.At(w.n - 1), true
}

// Reset empties the window.
func (w *Window) Reset() {
	for i := range w.buffer {
		w.buffer[i] = Sample{}
	}
	w.idx = 0
	w.n = 0
}
