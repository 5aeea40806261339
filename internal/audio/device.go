package audio

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/lexiqai/voice-companion/internal/observability"
)

var cardLineRe = regexp.MustCompile(`card (\d+):`)

// FindCardNumber locates the ALSA card number for a device whose
// `aplay -l` line contains the given pattern
func FindCardNumber(pattern string) (string, error) {
	out, err := exec.Command("aplay", "-l").Output()
	if err != nil {
		return "", fmt.Errorf("failed to list audio cards: %w", err)
	}
	return parseCardNumber(string(out), pattern)
}

// parseCardNumber extracts the card number from aplay -l output
func parseCardNumber(output, pattern string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, pattern) {
			continue
		}
		if m := cardLineRe.FindStringSubmatch(line); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("no audio card matching %q", pattern)
}

// SetupMixer configures capture gain on the given card before a
// recording starts. Failures are logged and ignored; a misconfigured
// mixer degrades quality but should not block capture
func SetupMixer(card string) {
	log := observability.GetLogger()

	settings := [][]string{
		{"name='ALC Capture Max PGA'", "6"},
		{"name='ALC Capture Min PGA'", "6"},
		{"name='Capture Digital Volume'", "192"},
		{"name='Left Channel Capture Volume'", "6"},
		{"name='Right Channel Capture Volume'", "6"},
		{"name='Left PGA Mux'", "1"},
		{"name='Right PGA Mux'", "1"},
		{"name='Differential Mux'", "1"},
	}

	for _, s := range settings {
		cmd := exec.Command("amixer", "-c", card, "cset", s[0], s[1])
		if err := cmd.Run(); err != nil {
			log.Debug().Str("control", s[0]).Err(err).Msg("Mixer setting failed")
		}
	}
}

// ReleaseMicrophone nudges the sound server to drop idle capture
// handles. Best effort: some systems have no PulseAudio at all
func ReleaseMicrophone() {
	run := func(name string, args ...string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		exec.CommandContext(ctx, name, args...).Run()
	}

	run("pactl", "unload-module", "module-suspend-on-idle")
	run("pactl", "load-module", "module-suspend-on-idle")
}

// DevicesAvailable reports whether any capture device is visible.
// The microphone is released first, which can free a device stuck
// busy from a previous run
func DevicesAvailable() bool {
	ReleaseMicrophone()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "arecord", "-l").Run() == nil
}
