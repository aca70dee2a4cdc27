package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner is a line spinner for one-shot commands that wait on the chain.
// The panel uses its own tick message instead.
type Spinner struct {
	out  io.Writer
	mu   sync.Mutex
	msg  string
	stop chan struct{}
	done chan struct{}
}

// NewSpinner creates a spinner that draws on stderr.
func NewSpinner(msg string) *Spinner {
	return NewSpinnerTo(os.Stderr, msg)
}

// NewSpinnerTo creates a spinner that draws on w.
func NewSpinnerTo(w io.Writer, msg string) *Spinner {
	return &Spinner{
		out:  w,
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		t := time.NewTicker(spinnerTick)
		defer t.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			msg := s.msg
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r%s  %s", StyleChain.Render(spinnerFrames[i%len(spinnerFrames)]), msg)

			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-72s\r", "")
				return
			case <-t.C:
			}
		}
	}()
}

// Update replaces the message shown next to the spinner.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Stop halts the spinner and clears its line.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}

// StopWithMsg halts the spinner and prints a final line.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Fprintln(s.out, msg)
}
