package audio

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/lexiqai/voice-companion/internal/config"
	"github.com/lexiqai/voice-companion/internal/observability"
	"github.com/lexiqai/voice-companion/internal/resilience"
)

// captureProcess is a managed child process writing audio to disk
type captureProcess interface {
	Running() bool
	Terminate() error
	Kill() error
	Wait(timeout time.Duration) bool
	Stderr() string
}

type startFunc func(destPath string) (captureProcess, error)

// Session is one active or finished recording
type Session struct {
	Path string
	proc captureProcess
}

// Recorder starts and stops microphone captures. A busy device is
// retried a bounded number of times with a fixed delay; each attempt
// writes to a fresh file so collisions across retries are impossible
type Recorder struct {
	cfg   *config.Config
	start startFunc

	// How long to let a freshly started process run before deciding
	// it survived startup
	probeDelay time.Duration
}

// NewRecorder creates a recorder capturing via arecord
func NewRecorder(cfg *config.Config) *Recorder {
	r := &Recorder{
		cfg:        cfg,
		probeDelay: 250 * time.Millisecond,
	}
	r.start = r.startArecord
	return r
}

// Start begins a capture, retrying on a busy device. On success the
// returned session's process is writing to Session.Path
func (r *Recorder) Start() (*Session, error) {
	log := observability.GetLogger()

	var session *Session
	attempt := 0
	err := resilience.Retry(func() error {
		attempt++
		s, err := r.tryStart()
		if err != nil {
			if resilience.IsDeviceBusyError(err) {
				log.Warn().
					Int("attempt", attempt).
					Int("max_attempts", r.cfg.RecordMaxRetries).
					Msg("Capture device busy, retrying")
			}
			return err
		}
		session = s
		return nil
	}, resilience.FixedDelayConfig(r.cfg.RecordMaxRetries, r.cfg.RetryDelay()), resilience.IsDeviceBusyError)

	if err != nil {
		return nil, fmt.Errorf("could not start recording: %w", err)
	}

	log.Info().Str("file", session.Path).Msg("Recording started")
	return session, nil
}

func (r *Recorder) tryStart() (*Session, error) {
	path := r.outputPath()

	proc, err := r.start(path)
	if err != nil {
		return nil, err
	}

	// A busy device makes arecord exit almost immediately; give it a
	// moment and inspect
	time.Sleep(r.probeDelay)
	if proc.Running() {
		return &Session{Path: path, proc: proc}, nil
	}

	os.Remove(path)
	stderr := proc.Stderr()
	if stderr == "" {
		stderr = "process exited during startup"
	}
	return nil, fmt.Errorf("recording failed to start: %s", stderr)
}

// Stop ends a capture: graceful termination first, escalating to a
// forced kill on timeout. The microphone release runs regardless of
// how termination went
func (r *Recorder) Stop(s *Session) error {
	defer ReleaseMicrophone()
	log := observability.GetLogger()

	if s == nil || s.proc == nil || !s.proc.Running() {
		return nil
	}

	if err := s.proc.Terminate(); err != nil {
		log.Warn().Err(err).Msg("Graceful stop failed, killing capture process")
	} else if s.proc.Wait(time.Duration(r.cfg.RecordStopTimeout) * time.Second) {
		log.Debug().Str("file", s.Path).Msg("Recording stopped")
		return nil
	} else {
		log.Warn().Msg("Capture process did not stop in time, forcing kill")
	}

	if err := s.proc.Kill(); err != nil {
		return fmt.Errorf("failed to kill capture process: %w", err)
	}
	if !s.proc.Wait(time.Duration(r.cfg.RecordKillTimeout) * time.Second) {
		return fmt.Errorf("capture process survived kill")
	}
	return nil
}

// Validate reports whether the session captured usable audio. A file
// below the minimum size means no audio, which is not an error
func (r *Recorder) Validate(s *Session) (bool, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return false, fmt.Errorf("failed to inspect recording: %w", err)
	}
	return info.Size() >= r.cfg.RecordMinBytes, nil
}

// Cleanup removes the session's capture file
func (r *Recorder) Cleanup(s *Session) {
	if s != nil {
		os.Remove(s.Path)
	}
}

// outputPath builds a unique destination per attempt
func (r *Recorder) outputPath() string {
	name := fmt.Sprintf("recording_%s_%s.wav",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8])
	return filepath.Join(r.cfg.RecordDir, name)
}

// startArecord launches the real capture process
func (r *Recorder) startArecord(destPath string) (captureProcess, error) {
	device := r.cfg.RecordDevice
	if device == "" {
		card, err := FindCardNumber(r.cfg.RecordCardPattern)
		if err != nil {
			return nil, err
		}
		SetupMixer(card)
		device = "hw:" + card + ",0"
	}

	cmd := exec.Command("arecord",
		"-D", device,
		"-f", "S16_LE",
		"-r", "16000",
		"-c", "1",
		destPath)

	stderr := &lockedBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch arecord: %w", err)
	}

	p := &execProcess{cmd: cmd, stderr: stderr, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stderr *lockedBuffer
	done   chan struct{}
}

func (p *execProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *execProcess) Terminate() error {
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *execProcess) Wait(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *execProcess) Stderr() string {
	return p.stderr.String()
}

// lockedBuffer is a goroutine-safe stderr sink; the capture process
// writes while we may be reading after an early exit
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
