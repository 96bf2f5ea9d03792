// Package process implements the Process Supervisor (C4): it owns the
// language-server child's three pipes and reader tasks, and the staged
// cross-platform shutdown spec.md §4.4 requires.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lspkit/internal/rpc"
	"lspkit/logging"
)

// Options configure how the child is launched.
type Options struct {
	Command          string
	Args             []string
	Dir              string
	Env              []string
	IndependentGroup bool // config.Config.StartIndependentLspProcess
	Trace            rpc.TraceFunc
	Logger           logging.Logger
}

// Supervisor spawns and owns exactly one language-server child process.
type Supervisor struct {
	opts      Options
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	stderr    io.ReadCloser
	Transport *rpc.Transport

	mu        sync.Mutex
	running   bool
	readErr   error
	readDone  chan struct{}
	stderrBuf bytes.Buffer
	stderrMu  sync.Mutex
	stderrEOF chan struct{}
}

// New constructs a Supervisor. Start must be called before use.
func New(opts Options) *Supervisor {
	if opts.Logger == nil {
		opts.Logger = logging.NoOp()
	}
	return &Supervisor{opts: opts}
}

// Start launches the child process and begins driving its stdout through
// the JSON-RPC transport. stderr is drained into an internal buffer and
// surfaced via LastStderr.
func (s *Supervisor) Start() error {
	cmd := exec.Command(s.opts.Command, s.opts.Args...)
	cmd.Dir = s.opts.Dir
	if len(s.opts.Env) > 0 {
		cmd.Env = s.opts.Env
	}
	if s.opts.IndependentGroup {
		setProcessGroup(cmd)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("process: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("process: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("process: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("process: start %s: %w", s.opts.Command, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.stdout = stdout
	s.stderr = stderr
	s.running = true
	s.readDone = make(chan struct{})
	s.stderrEOF = make(chan struct{})
	s.mu.Unlock()

	s.Transport = rpc.New(stdin, s.opts.Trace)

	go func() {
		defer close(s.readDone)
		err := s.Transport.Run(stdout)
		s.mu.Lock()
		s.readErr = err
		s.mu.Unlock()
		s.Transport.Close(err)
	}()

	go func() {
		defer close(s.stderrEOF)
		buf := make([]byte, 4096)
		for {
			n, err := stderr.Read(buf)
			if n > 0 {
				s.stderrMu.Lock()
				s.stderrBuf.Write(buf[:n])
				s.stderrMu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	return nil
}

// IsRunning reports whether the child is believed to still be alive.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.cmd != nil && s.cmd.Process != nil
}

// LastStderr returns whatever the child has written to stderr so far, for
// diagnostics when startup or a request fails.
func (s *Supervisor) LastStderr() string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()
	return s.stderrBuf.String()
}

// Shutdown runs the four-stage teardown spec.md §4.4 specifies:
//
//  1. Graceful LSP request: shutdown, then exit, then close stdin. Bounded
//     by a two-second sub-timeout; errors ignored.
//  2. Cooperative exit: signal the process to terminate; wait for process
//     exit and both reader tasks to drain to EOF, concurrently, with the
//     remaining timeout.
//  3. Forceful kill on timeout; wait for the OS to reap.
//  4. Handle cleanup: cancel lingering reader tasks, close pipes, drop the
//     process reference.
//
// On the platform whose async proactor mishandles abandoned pipes,
// stages 1-2 are skipped in favor of a one-second join before stage 3
// (spec.md §4.4, §9).
func (s *Supervisor) Shutdown(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	cmd := s.cmd
	running := s.running
	s.mu.Unlock()
	if !running || cmd == nil || cmd.Process == nil {
		return nil
	}

	deadline := time.Now().Add(timeout)

	if hostileShutdown {
		s.joinWithTimeout(1 * time.Second)
	} else {
		s.gracefulLSPShutdown(ctx)
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		s.cooperativeExit(remaining)
	}

	if s.IsRunning() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}

	s.cleanup()
	return nil
}

// gracefulLSPShutdown implements stage 1.
func (s *Supervisor) gracefulLSPShutdown(ctx context.Context) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, _ = s.Transport.Call(subCtx, "shutdown", nil)
	_ = s.Transport.Notify("exit", nil)
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
}

// cooperativeExit implements stage 2: signal, then wait for process exit
// and both reader tasks to reach EOF concurrently.
func (s *Supervisor) cooperativeExit(timeout time.Duration) {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = terminateGracefully(cmd)
	s.joinWithTimeout(timeout)
}

// joinWithTimeout waits, up to timeout, for the process to exit and both
// reader goroutines to drain. A timeout simply returns; the caller moves
// on to the forceful kill stage.
func (s *Supervisor) joinWithTimeout(timeout time.Duration) {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		g := new(errgroup.Group)
		g.Go(func() error {
			if cmd != nil && cmd.Process != nil {
				_, _ = cmd.Process.Wait()
			}
			return nil
		})
		g.Go(func() error {
			<-s.readDone
			return nil
		})
		g.Go(func() error {
			<-s.stderrEOF
			return nil
		})
		_ = g.Wait()
	}()

	select {
	case <-done:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	case <-time.After(timeout):
	}
}

// cleanup implements stage 4: cancel lingering reader tasks by closing the
// pipes they block on, close every handle explicitly, and drop the process
// reference so IsRunning reports false from here on.
func (s *Supervisor) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	if s.stderr != nil {
		_ = s.stderr.Close()
	}
	s.running = false
	s.cmd = nil
}
