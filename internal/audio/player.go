package audio

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lexiqai/voice-companion/internal/config"
)

// ExecPlayer plays audio files by running an external player to
// completion. The call blocks for the clip's duration; it cannot be
// cancelled mid-clip
type ExecPlayer struct {
	command string
}

// NewExecPlayer creates a player using the configured command
func NewExecPlayer(cfg *config.Config) *ExecPlayer {
	return &ExecPlayer{command: cfg.PlayerCommand}
}

// Play plays one file synchronously
func (p *ExecPlayer) Play(path string) error {
	args := []string{path}
	if p.command == "ffplay" {
		args = []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}

	cmd := exec.Command(p.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("playback failed: %w: %s", err, msg)
		}
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
