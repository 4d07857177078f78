package render

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner steps through braille dot frames.
type Spinner struct {
	frame    int
	interval time.Duration
}

// NewSpinner returns a spinner at its first frame.
func NewSpinner() *Spinner {
	return &Spinner{interval: 80 * time.Millisecond}
}

// Advance moves to the next frame.
func (s *Spinner) Advance() { s.frame++ }

// Reset resets the spinner to its initial state.
func (s *Spinner) Reset() { s.frame = 0 }

// Frame returns the current animation frame string.
func (s *Spinner) Frame() string {
	return frames[s.frame%len(frames)]
}

// Indicator animates a spinner on a single terminal line until stopped.
type Indicator struct {
	w       io.Writer
	spinner *Spinner
	message string

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewIndicator returns a stopped indicator writing to w.
func NewIndicator(w io.Writer, message string) *Indicator {
	return &Indicator{w: w, spinner: NewSpinner(), message: message}
}

// Start begins animating. Calling Start on a running indicator does nothing.
func (ind *Indicator) Start() {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.stop != nil {
		return
	}
	ind.stop = make(chan struct{})
	ind.done = make(chan struct{})
	ind.spinner.Reset()
	go ind.loop(ind.stop, ind.done)
}

// Stop halts the animation and clears its line.
func (ind *Indicator) Stop() {
	ind.mu.Lock()
	stop, done := ind.stop, ind.done
	ind.stop, ind.done = nil, nil
	ind.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (ind *Indicator) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(ind.spinner.interval)
	defer ticker.Stop()
	for {
		fmt.Fprintf(ind.w, "\r%s %s", ind.spinner.Frame(), ind.message)
		select {
		case <-stop:
			fmt.Fprint(ind.w, "\r\033[K")
			return
		case <-ticker.C:
			ind.spinner.Advance()
		}
	}
}
