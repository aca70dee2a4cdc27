package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

func TestConfirmFromAnswers(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		" yes ":   true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"maybe\n": false,
	}
	for in, want := range cases {
		var out bytes.Buffer
		got := ConfirmFrom(strings.NewReader(in), &out, "withdraw?")
		assert.Equal(t, want, got, "input %q", in)
		assert.Contains(t, out.String(), "withdraw? [y/N]")
	}
}

// ---------------------------------------------------------------------------
// Spinner
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndStops(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinnerTo(out, "submitting")
	s.Start()
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "submitting")
	}, time.Second, 10*time.Millisecond)

	s.Update("confirming")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "confirming")
	}, time.Second, 10*time.Millisecond)

	s.StopWithMsg("done")
	assert.True(t, strings.HasSuffix(out.String(), "done\n"))
}
