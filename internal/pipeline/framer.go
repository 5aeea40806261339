package pipeline

import (
	"io"
	"strings"
)

// TokenSource yields generated token chunks one at a time. Next
// returns io.EOF at the end of generation
type TokenSource interface {
	Next() (string, error)
}

// TokenFramer filters a raw token stream against stop markers. It
// scans a trailing window of the accumulated text after every token;
// on a match it truncates at the marker's last occurrence and ends
// the stream. Text that could still turn out to be the start of a
// marker is withheld until ruled out, so no fragment of a matched
// marker ever reaches the segmenter
type TokenFramer struct {
	source  TokenSource
	markers []string
	window  int
	ctrl    *Controller

	emitted  int    // characters already released downstream
	buf      string // received but not yet released
	finished bool
	err      error
}

// NewTokenFramer creates a framer over the given token source. The
// scan window is grown to the longest marker if needed so a marker
// can never slip through undetected
func NewTokenFramer(source TokenSource, markers []string, window int, ctrl *Controller) *TokenFramer {
	for _, m := range markers {
		if len(m) > window {
			window = len(m)
		}
	}

	return &TokenFramer{
		source:  source,
		markers: markers,
		window:  window,
		ctrl:    ctrl,
	}
}

// Next returns the next span of clean text, or io.EOF when the
// stream ends or a stop marker terminates it. Source errors are
// propagated as-is
func (f *TokenFramer) Next() (string, error) {
	if f.finished {
		return "", f.err
	}

	for {
		if f.ctrl != nil && f.ctrl.Interrupted() {
			return f.terminate("", io.EOF)
		}

		tok, err := f.source.Next()
		if err == io.EOF {
			// End of generation; withheld text was never part
			// of a completed marker, release it
			return f.terminate(f.buf, io.EOF)
		}
		if err != nil {
			return f.terminate("", err)
		}

		f.buf += tok

		if cut, ok := f.scanWindow(); ok {
			return f.terminate(f.buf[:cut], io.EOF)
		}

		hold := f.holdback()
		out := f.buf[:len(f.buf)-hold]
		f.buf = f.buf[len(f.buf)-hold:]
		f.emitted += len(out)

		if out != "" {
			return out, nil
		}
	}
}

// scanWindow looks for any marker whose occurrence falls inside the
// trailing window of the accumulated text. Markers are checked in
// configuration order; the cut point is the matched marker's last
// occurrence
func (f *TokenFramer) scanWindow() (int, bool) {
	total := f.emitted + len(f.buf)
	windowStart := total - f.window

	for _, m := range f.markers {
		idx := strings.LastIndex(f.buf, m)
		if idx < 0 {
			continue
		}
		// Withholding guarantees a marker never straddles the
		// released/unreleased boundary, so searching buf covers
		// the whole window
		if f.emitted+idx < windowStart {
			continue
		}
		return idx, true
	}

	return 0, false
}

// holdback returns the length of the longest suffix of buf that is a
// proper prefix of any marker
func (f *TokenFramer) holdback() int {
	longest := 0
	for _, m := range f.markers {
		limit := len(m) - 1
		if limit > len(f.buf) {
			limit = len(f.buf)
		}
		for l := limit; l > longest; l-- {
			if strings.HasSuffix(f.buf, m[:l]) {
				longest = l
				break
			}
		}
	}
	return longest
}

func (f *TokenFramer) terminate(out string, err error) (string, error) {
	f.finished = true
	f.err = err
	f.buf = ""

	if out != "" {
		// Deliver the final span now; the caller observes the
		// terminal error on the following call
		if err == io.EOF {
			return out, nil
		}
	}
	return "", err
}
