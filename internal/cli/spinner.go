package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line on stderr while a blocking step such as
// resolution runs, with the time spent so far. Nothing is drawn when stderr
// is not a terminal. The animation ends when Stop is called or ctx is done.
type Spinner struct {
	message string
	ctx     context.Context
	w       io.Writer
	animate bool

	mu      sync.Mutex
	started bool
	begin   time.Time
	elapsed time.Duration
	width   int // printed width of the line on screen

	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// newSpinner creates a spinner for message that stops drawing when ctx is
// done.
func newSpinner(ctx context.Context, message string) *Spinner {
	fd := os.Stderr.Fd()
	return &Spinner{
		message: message,
		ctx:     ctx,
		w:       os.Stderr,
		animate: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the animation. Calls after the first, or after Stop, do
// nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.begin = time.Now()
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			s.clear()
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	if !s.animate {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("%s %s %s",
		styleIconSpinner.Render(frame),
		s.message,
		StyleDim.Render(formatElapsed(time.Since(s.begin))))
	fmt.Fprintf(s.w, "\r%s", line)
	s.width = lipgloss.Width(line)
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// Stop ends the animation and clears the line. It is safe to call more
// than once, and before Start.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.started = true
		if started {
			s.elapsed = time.Since(s.begin)
		}
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
		s.clear()
	})
}

// Elapsed returns how long the spinner ran, once stopped.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// StopWithSuccess stops the spinner and prints message with the time taken.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s %s", message, StyleDim.Render(formatElapsed(s.Elapsed())))
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's context ended. Stop alone does not
// cancel it.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// formatElapsed renders d with a tenth of a second precision.
func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
