package toolproto

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
)

const (
	defaultCallTimeout = 45 * time.Second
	// Tool server responses can carry full posting descriptions.
	maxFrameSize = 4 << 20
)

// Credentials authenticate the run against the remote job source. They are
// attached to search and apply calls, never logged.
type Credentials struct {
	Email    string
	Password string
}

// Options tune a Client. Zero values fall back to defaults.
type Options struct {
	Logger      *zap.Logger
	CallTimeout time.Duration
	Credentials Credentials
}

// Client exchanges typed request/response frames with a tool server over a
// byte stream, usually the stdio of a dedicated subprocess. One client serves
// exactly one workflow run and must not be shared between runs.
type Client struct {
	logger  *zap.Logger
	timeout time.Duration
	creds   Credentials

	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]chan *response
	failure error
	closed  bool

	closeFn func() error
	done    chan struct{}
}

// New wires a client over an already established transport. closeFn tears the
// transport down; it may be nil for test pipes that are closed elsewhere.
func New(r io.Reader, w io.Writer, closeFn func() error, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	c := &Client{
		logger:  logger,
		timeout: timeout,
		creds:   opts.Credentials,
		enc:     json.NewEncoder(w),
		pending: make(map[uint64]chan *response),
		closeFn: closeFn,
		done:    make(chan struct{}),
	}

	go c.readLoop(r)

	return c
}

// readLoop decodes frames from the server and dispatches them to waiting
// calls by sequence number. A read error or malformed frame poisons the
// channel: all in-flight and future calls fail with a TransportError.
func (c *Client) readLoop(r io.Reader) {
	defer close(c.done)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			c.fail(fmt.Errorf("malformed response frame: %w", err))
			return
		}

		c.dispatch(&resp)
	}

	err := scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	c.fail(err)
}

func (c *Client) dispatch(resp *response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.Seq]
	if ok {
		delete(c.pending, resp.Seq)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("dropping response with unknown sequence number", zap.Uint64("seq", resp.Seq))
		return
	}

	ch <- resp
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failure == nil {
		c.failure = err
	}

	for seq, ch := range c.pending {
		close(ch)
		delete(c.pending, seq)
	}
}

// Call issues a single request and waits for the matching response. A nil out
// skips result decoding.
func (c *Client) Call(ctx context.Context, corr correlation.Context, op string, args, out any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &TransportError{Op: op, Err: fmt.Errorf("client is closed")}
	}
	if c.failure != nil {
		err := c.failure
		c.mu.Unlock()
		return &TransportError{Op: op, Err: err}
	}
	c.seq++
	seq := c.seq
	ch := make(chan *response, 1)
	c.pending[seq] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, seq)
		c.mu.Unlock()
	}()

	req := request{Seq: seq, Op: op, Args: args, CorrelationID: corr.RunID()}

	c.logger.Debug("tool request",
		corr.Field(),
		zap.String("op", op),
		zap.Uint64("seq", seq),
	)

	c.writeMu.Lock()
	err := c.enc.Encode(req)
	c.writeMu.Unlock()
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("write frame: %w", err)}
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return &TransportError{Op: op, Err: ctx.Err()}
	case <-timer.C:
		return &TransportError{Op: op, Err: ErrTimeout}
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.failure
			c.mu.Unlock()
			return &TransportError{Op: op, Err: err}
		}
		return c.handleResponse(op, resp, out)
	}
}

func (c *Client) handleResponse(op string, resp *response, out any) error {
	if resp.Error != nil {
		return &CallError{
			Op:        op,
			Kind:      resp.Error.Kind,
			Message:   resp.Error.Message,
			Retryable: resp.Error.Retryable,
		}
	}

	if out == nil {
		return nil
	}

	return decodeResult(op, resp.Result, out)
}

// decodeResult goes through an intermediate map so field names follow json
// tags regardless of how the server spells optional fields.
func decodeResult(op string, raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return &TransportError{Op: op, Err: fmt.Errorf("response carries no result")}
	}

	var intermediate any
	if err := json.Unmarshal(raw, &intermediate); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("parse result: %w", err)}
	}

	cfg := &mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if err := decoder.Decode(intermediate); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode result: %w", err)}
	}

	return nil
}

// Close tears down the transport and waits for the reader to drain.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var err error
	if c.closeFn != nil {
		err = c.closeFn()
	}

	<-c.done

	return err
}
