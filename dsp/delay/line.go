// Package delay provides a fixed-capacity circular delay line for
// per-sample streaming stages. The line exposes only "write one sample"
// and "read the sample written k writes ago", which keeps wraparound
// index arithmetic in one place.
package delay

import "fmt"

// Line is a circular delay line of fixed size.
// A zero-filled line behaves as if it had been fed zeros forever.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written k writes ago; Read(0) is the most
// recent write. k is clamped to [0, Len()-1].
func (d *Line) Read(k int) float64 {
	size := len(d.buffer)
	if k < 0 {
		k = 0
	}
	if k >= size {
		k = size - 1
	}
	readPos := (d.writePos - 1 - k + 2*size) % size
	return d.buffer[readPos]
}

// Max returns the largest sample currently held in the line.
func (d *Line) Max() float64 {
	max := d.buffer[0]
	for _, v := range d.buffer[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
