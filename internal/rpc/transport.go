// Package rpc implements the line-framed JSON-RPC transport (C3) that
// carries LSP traffic over a child process's standard streams.
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"lspkit/protocol"
)

// ErrTransportClosed is returned to any pending or new request once the
// transport has been shut down.
var ErrTransportClosed = errors.New("rpc: transport closed")

// TraceFunc receives a copy of every frame lspkit sends or reads when
// tracing is enabled (config.Config.TraceLspCommunication). direction is
// "send" or "recv".
type TraceFunc func(direction string, payload []byte)

// RequestHandler answers a server-initiated request.
type RequestHandler func(params json.RawMessage) (result any, err *protocol.ResponseError)

// NotificationHandler reacts to a server-initiated notification. It must
// not block: handlers run synchronously on the read loop.
type NotificationHandler func(params json.RawMessage)

// pending is the completion slot for one outstanding request.
type pending struct {
	resultCh chan json.RawMessage
	errCh    chan *protocol.ResponseError
}

// Transport frames JSON-RPC messages over w/r, correlates requests with
// responses, and dispatches server-initiated requests/notifications.
//
// Ordering: request completions resolve in the order the server sends
// them; notifications dispatch to handlers in arrival order on the same
// goroutine that reads them (spec.md §4.3, §5).
type Transport struct {
	w     io.Writer
	wMu   sync.Mutex
	trace TraceFunc

	nextID  int64
	pending sync.Map // int64 -> *pending

	reqHandlers  map[string]RequestHandler
	notifyHandlers map[string]NotificationHandler
	handlersMu   sync.RWMutex

	closed   atomic.Bool
	closeCh  chan struct{}
	closeErr error
	closeMu  sync.Mutex
}

// New constructs a Transport that writes to w and will be driven by a
// caller-owned goroutine calling Run(r).
func New(w io.Writer, trace TraceFunc) *Transport {
	return &Transport{
		w:              w,
		trace:          trace,
		reqHandlers:    make(map[string]RequestHandler),
		notifyHandlers: make(map[string]NotificationHandler),
		closeCh:        make(chan struct{}),
	}
}

// OnRequest registers the handler invoked for server-initiated requests of
// the given method. Replaces any previously registered handler.
func (t *Transport) OnRequest(method string, h RequestHandler) {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()
	t.reqHandlers[method] = h
}

// OnNotification registers the handler invoked for notifications of the
// given method. Unhandled notifications are dropped with a trace log
// (spec.md §4.3).
func (t *Transport) OnNotification(method string, h NotificationHandler) {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()
	t.notifyHandlers[method] = h
}

// Call sends a request and blocks until the matching response arrives, ctx
// is done, or the transport closes.
func (t *Transport) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	id := atomic.AddInt64(&t.nextID, 1)
	slot := &pending{resultCh: make(chan json.RawMessage, 1), errCh: make(chan *protocol.ResponseError, 1)}
	t.pending.Store(id, slot)
	defer t.pending.Delete(id)

	if err := t.send(protocol.Envelope{
		JSONRPC: "2.0",
		ID:      idPtr(protocol.NewIntID(id)),
		Method:  method,
		Params:  marshalParams(params),
	}); err != nil {
		return nil, fmt.Errorf("rpc: send %s: %w", method, err)
	}

	select {
	case res := <-slot.resultCh:
		return res, nil
	case rpcErr := <-slot.errCh:
		return nil, wrapServerError(method, params, rpcErr)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closeCh:
		return nil, ErrTransportClosed
	}
}

// Notify sends a notification; there is no response to wait for.
func (t *Transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return ErrTransportClosed
	}
	return t.send(protocol.Envelope{JSONRPC: "2.0", Method: method, Params: marshalParams(params)})
}

// respond answers a server-initiated request previously delivered to a
// RequestHandler.
func (t *Transport) respond(id protocol.RequestID, result any, rpcErr *protocol.ResponseError) error {
	env := protocol.Envelope{JSONRPC: "2.0", ID: &id}
	if rpcErr != nil {
		env.Error = rpcErr
	} else {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		env.Result = b
	}
	return t.send(env)
}

// Cancel sends $/cancelRequest for id. lspkit never calls this internally
// (spec.md §5: "no $/cancelRequest sent by default"); it is exposed for a
// caller that wants to request cancellation on the wire.
func (t *Transport) Cancel(id int64) error {
	return t.Notify("$/cancelRequest", map[string]any{"id": id})
}

// Close marks the transport closed, failing every pending call.
func (t *Transport) Close(err error) {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed.Swap(true) {
		return
	}
	t.closeErr = err
	close(t.closeCh)
}

func (t *Transport) send(env protocol.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if t.trace != nil {
		t.trace("send", body)
	}
	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))

	t.wMu.Lock()
	defer t.wMu.Unlock()
	if _, err := io.WriteString(t.w, header); err != nil {
		return err
	}
	_, err = t.w.Write(body)
	return err
}

// Run reads framed messages from r until EOF or a framing error, dispatching
// each to the pending table or the registered handlers. It returns when the
// stream ends; the caller (internal/process) owns the goroutine.
func (t *Transport) Run(r io.Reader) error {
	br := bufio.NewReader(r)
	for {
		length, err := readHeaders(br)
		if err != nil {
			return err
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			return fmt.Errorf("rpc: read body: %w", err)
		}
		if t.trace != nil {
			t.trace("recv", body)
		}
		t.dispatch(body)
	}
}

func readHeaders(br *bufio.Reader) (int, error) {
	contentLength := -1
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return 0, fmt.Errorf("rpc: invalid Content-Length %q: %w", value, err)
			}
			contentLength = n
		}
	}
	if contentLength < 0 {
		return 0, errors.New("rpc: missing Content-Length header")
	}
	return contentLength, nil
}

func (t *Transport) dispatch(body []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return
	}

	switch {
	case env.ID != nil && env.Method == "":
		// Response to one of our requests.
		v, ok := t.pending.Load(env.ID.Number)
		if !ok {
			return
		}
		slot := v.(*pending)
		if env.Error != nil {
			slot.errCh <- env.Error
		} else {
			slot.resultCh <- env.Result
		}

	case env.ID != nil && env.Method != "":
		// Server-initiated request.
		t.handlersMu.RLock()
		h := t.reqHandlers[env.Method]
		t.handlersMu.RUnlock()
		if h == nil {
			_ = t.respond(*env.ID, nil, &protocol.ResponseError{Code: protocol.ErrCodeMethodNotFound, Message: "unhandled: " + env.Method})
			return
		}
		result, rpcErr := h(env.Params)
		_ = t.respond(*env.ID, result, rpcErr)

	default:
		// Notification.
		t.handlersMu.RLock()
		h := t.notifyHandlers[env.Method]
		t.handlersMu.RUnlock()
		if h == nil {
			if t.trace != nil {
				t.trace("recv-unhandled-notification", []byte(env.Method))
			}
			return
		}
		h(env.Params)
	}
}

func marshalParams(params any) json.RawMessage {
	if params == nil {
		return nil
	}
	b, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	return b
}

func idPtr(id protocol.RequestID) *protocol.RequestID { return &id }

// wrapServerError implements spec.md §4.3/§7: an InternalError on a
// references request is wrapped with the originating location to aid
// diagnosis; other codes propagate unchanged.
func wrapServerError(method string, params any, rpcErr *protocol.ResponseError) error {
	if rpcErr.Code == protocol.ErrCodeInternalError && method == "textDocument/references" {
		return &ReferencesInternalError{Method: method, Params: params, Cause: rpcErr}
	}
	return rpcErr
}

// ReferencesInternalError is raised when the server answers
// textDocument/references with code -32603, wrapping the position that
// triggered it so callers can report a useful diagnostic.
type ReferencesInternalError struct {
	Method string
	Params any
	Cause  *protocol.ResponseError
}

func (e *ReferencesInternalError) Error() string {
	return fmt.Sprintf("rpc: %s failed at %+v: %s", e.Method, e.Params, e.Cause.Message)
}

func (e *ReferencesInternalError) Unwrap() error { return e.Cause }
