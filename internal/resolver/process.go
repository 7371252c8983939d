package resolver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// HandshakeTimeout bounds how long the parent waits for the child's
// bundle-identifier handshake.
const HandshakeTimeout = 20 * time.Second

// ErrorOutputFunc receives the child's stderr, one line at a time.
type ErrorOutputFunc func(line string)

// wireMessage covers every line the child may send: the one-time handshake,
// a successful resolution, or a resolution failure.
type wireMessage struct {
	BundleIdentifier    *string              `json:"bundleIdentifier,omitempty"`
	ResolvedInformation *ResolvedInformation `json:"resolvedInformation,omitempty"`
	ErrorMessage        *string              `json:"errorMessage,omitempty"`
}

// OutOfProcessResolver runs a resolver executable as a child process and
// speaks line-delimited JSON over its stdin/stdout. At most one request is
// in flight at a time; stderr is forwarded asynchronously without blocking
// the request/response exchange.
type OutOfProcessResolver struct {
	bundleID string
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	lines    chan string
	readErr  chan error

	mu sync.Mutex // guards the single-outstanding-request invariant
}

// StartProcessResolver launches the executable and performs the handshake:
// the child writes {"bundleIdentifier": ...} exactly once at startup.
func StartProcessResolver(ctx context.Context, executable string, args []string, errorOutput ErrorOutputFunc) (*OutOfProcessResolver, error) {
	cmd := exec.CommandContext(ctx, executable, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryResolver, archerr.SeverityError, "open resolver stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryResolver, archerr.SeverityError, "open resolver stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryResolver, archerr.SeverityError, "open resolver stderr")
	}

	if err := cmd.Start(); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryResolver, archerr.SeverityError,
			fmt.Sprintf("start external resolver %s", executable))
	}

	r := &OutOfProcessResolver{
		cmd:     cmd,
		stdin:   stdin,
		lines:   make(chan string),
		readErr: make(chan error, 1),
	}

	// Line-buffered stderr forwarder, decoupled from request/response.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if errorOutput != nil {
				errorOutput(scanner.Text())
			}
		}
	}()

	// Dedicated stdout reader; responses are handed over one line at a time.
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			r.lines <- scanner.Text()
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		r.readErr <- err
		close(r.lines)
	}()

	handshakeCtx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()
	line, err := r.readLine(handshakeCtx)
	if err != nil {
		_ = r.Close()
		return nil, archerr.Wrap(err, archerr.CategoryProtocol, archerr.SeverityError,
			"external resolver did not send its bundle identifier handshake")
	}
	var hello wireMessage
	if unmarshalErr := json.Unmarshal([]byte(line), &hello); unmarshalErr != nil || hello.BundleIdentifier == nil {
		_ = r.Close()
		return nil, archerr.ProtocolError(
			fmt.Sprintf("external resolver sent an invalid handshake line: %q", line))
	}
	r.bundleID = *hello.BundleIdentifier
	slog.Debug("External resolver started",
		slog.String("bundle", r.bundleID),
		slog.String("executable", executable))
	return r, nil
}

// BundleIdentifier returns the identifier received during the handshake.
func (r *OutOfProcessResolver) BundleIdentifier() string { return r.bundleID }

// ResolveTopic sends a raw topic URL line and awaits the response.
func (r *OutOfProcessResolver) ResolveTopic(ctx context.Context, url string) (*ResolvedInformation, error) {
	return r.roundTrip(ctx, url)
}

// ResolveSymbol sends a bare symbol USR line and awaits the response.
func (r *OutOfProcessResolver) ResolveSymbol(ctx context.Context, usr string) (*ResolvedInformation, error) {
	return r.roundTrip(ctx, usr)
}

// roundTrip performs one blocking request/response exchange. Failure is
// per-request: already-resolved references remain valid when a later
// request hits a protocol error.
func (r *OutOfProcessResolver) roundTrip(ctx context.Context, request string) (*ResolvedInformation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := io.WriteString(r.stdin, request+"\n"); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryProtocol, archerr.SeverityError,
			"write request to external resolver")
	}

	line, err := r.readLine(ctx)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryProtocol, archerr.SeverityError,
			"external resolver exited before responding")
	}

	var msg wireMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryProtocol, archerr.SeverityError,
			fmt.Sprintf("external resolver sent malformed JSON: %q", line))
	}
	switch {
	case msg.BundleIdentifier != nil:
		// The handshake is sent exactly once at startup; repeating it in
		// place of a response is a contract violation.
		return nil, archerr.ProtocolError("external reference resolver sent bundle identifier again")
	case msg.ResolvedInformation != nil:
		return msg.ResolvedInformation, nil
	case msg.ErrorMessage != nil:
		return nil, &ResolutionFailure{Reference: request, Message: *msg.ErrorMessage}
	default:
		return nil, archerr.ProtocolError(
			fmt.Sprintf("external resolver response carries neither resolvedInformation nor errorMessage: %q", line))
	}
}

// readLine waits for the next stdout line, the context deadline, or reader
// termination, whichever comes first.
func (r *OutOfProcessResolver) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case err := <-r.readErr:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close terminates the child process.
func (r *OutOfProcessResolver) Close() error {
	_ = r.stdin.Close()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	return r.cmd.Wait()
}
