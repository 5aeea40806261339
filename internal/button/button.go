package button

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/observability"
)

// Pin reads one GPIO input. Pressed means the line is pulled low
type Pin interface {
	Pressed() (bool, error)
}

// SysfsPin reads a GPIO line through the sysfs value file. The pin
// is wired active-low with a pull-up, so value 0 means pressed
type SysfsPin struct {
	path string
}

// NewSysfsPin creates a pin reader for the given GPIO number. The
// pin must already be exported and configured as input
func NewSysfsPin(pin int) *SysfsPin {
	return &SysfsPin{
		path: fmt.Sprintf("/sys/class/gpio/gpio%d/value", pin),
	}
}

func (p *SysfsPin) Pressed() (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, fmt.Errorf("failed to read gpio: %w", err)
	}
	return strings.TrimSpace(string(data)) == "0", nil
}

// Button samples a pin at a fixed interval and exposes blocking
// press/release waits with a debounce pause after each edge
type Button struct {
	pin      Pin
	poll     time.Duration
	debounce time.Duration
}

// New creates a button over the configured GPIO pin
func New(cfg *config.Config) *Button {
	return &Button{
		pin:      NewSysfsPin(cfg.ButtonGPIOPin),
		poll:     time.Duration(cfg.ButtonPollMs) * time.Millisecond,
		debounce: time.Duration(cfg.ButtonDebounce) * time.Millisecond,
	}
}

// NewWithPin creates a button over an arbitrary pin implementation
func NewWithPin(pin Pin, poll, debounce time.Duration) *Button {
	return &Button{pin: pin, poll: poll, debounce: debounce}
}

// WaitForPress blocks until the button is pressed or the context ends
func (b *Button) WaitForPress(ctx context.Context) error {
	return b.waitFor(ctx, true)
}

// WaitForRelease blocks until the button is released or the context ends
func (b *Button) WaitForRelease(ctx context.Context) error {
	return b.waitFor(ctx, false)
}

func (b *Button) waitFor(ctx context.Context, pressed bool) error {
	log := observability.GetLogger()

	for {
		state, err := b.pin.Pressed()
		if err != nil {
			return err
		}
		if state == pressed {
			// Debounce pause so the same edge is not seen twice
			b.sleep(ctx, b.debounce)
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			log.Debug().Msg("Button wait cancelled")
			return ctx.Err()
		case <-time.After(b.poll):
		}
	}
}

// MonitorInterrupt watches for a press and calls interrupt once upon
// the first one, then waits out the release. It returns when the
// context ends
func (b *Button) MonitorInterrupt(ctx context.Context, interrupt func()) {
	fired := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.poll):
		}

		state, err := b.pin.Pressed()
		if err != nil {
			continue
		}
		if state && !fired {
			fired = true
			interrupt()
			// Swallow the rest of the press so it is not mistaken
			// for the next conversation trigger
			if err := b.WaitForRelease(ctx); err != nil {
				return
			}
		}
	}
}

func (b *Button) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
