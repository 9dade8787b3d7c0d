package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
)

var ErrNoSender = errors.New("remote: no sender attached")

var _ script.Runtime = (*Runtime)(nil)

// Sender carries one encoded message to the script side.
type Sender interface {
	Send(msg []byte) error
}

type SenderFunc func(msg []byte) error

func (f SenderFunc) Send(msg []byte) error {
	return f(msg)
}

// Runtime is a script context that lives on the other side of a message
// channel, such as a webview or a browser tab connected over a websocket.
// Incoming messages are handled on the owner loop.
type Runtime struct {
	id     string
	loop   *loop.Loop
	logger *slog.Logger

	mu     sync.Mutex
	sender Sender

	gen    atomic.Uint64
	closed atomic.Bool

	// loop-confined
	exposures map[string]*script.Exposure
	depth     int
	onContext func(script.Runtime)
}

func New(id string, l *loop.Loop, logger *slog.Logger) *Runtime {
	r := &Runtime{
		id:        id,
		loop:      l,
		logger:    logger.With("runtime", id),
		exposures: make(map[string]*script.Exposure),
	}
	r.gen.Store(1)
	return r
}

func (r *Runtime) ID() string {
	return r.id
}

func (r *Runtime) Generation() uint64 {
	return r.gen.Load()
}

// OnContext registers fn to run on the loop whenever the script side
// announces a fresh context.
func (r *Runtime) OnContext(fn func(script.Runtime)) {
	r.onContext = fn
}

// SetSender swaps the outbound channel. A nil sender detaches it.
func (r *Runtime) SetSender(s Sender) {
	r.mu.Lock()
	r.sender = s
	r.mu.Unlock()
}

func (r *Runtime) Close() {
	r.closed.Store(true)
	r.gen.Add(1)
	r.SetSender(nil)
}

func (r *Runtime) Post(task func()) bool {
	if r.closed.Load() {
		return false
	}
	return r.loop.Post(task)
}

// Receive decodes one message from script and queues its handling.
func (r *Runtime) Receive(raw []byte) error {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("remote: decode message: %w", err)
	}

	switch msg.Type {
	case msgReady, msgCall:
	default:
		return fmt.Errorf("remote: unknown message type %q", msg.Type)
	}

	if !r.Post(func() { r.handle(msg) }) {
		return script.ErrClosed
	}
	return nil
}

func (r *Runtime) handle(msg inbound) {
	switch msg.Type {
	case msgReady:
		r.gen.Add(1)
		clear(r.exposures)
		if r.onContext != nil {
			r.onContext(r)
		}
	case msgCall:
		r.handleCall(msg)
	}
}

func (r *Runtime) handleCall(msg inbound) {
	reply := replyMsg{Type: msgReply, ID: msg.Reply}

	exp, ok := r.exposures[msg.Name]
	if !ok {
		reply.Error = fmt.Sprintf("%s is not defined", msg.Name)
		r.reply(reply)
		return
	}

	m, ok := exp.Methods[msg.Path]
	if !ok {
		if v, isValue := exp.Values[msg.Path]; isValue {
			reply.Result = v
		} else {
			reply.Error = fmt.Sprintf("%s.%s is not a function", msg.Name, msg.Path)
		}
		r.reply(reply)
		return
	}

	r.depth++
	res, err := m(&jsonArgs{rt: r, raw: msg.Args})
	r.depth--

	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Result = encodeArg(res)
	}
	r.reply(reply)
}

func (r *Runtime) Expose(name string, exp *script.Exposure) error {
	if r.closed.Load() {
		return script.ErrClosed
	}
	if r.exposures[name] == exp {
		return nil
	}
	r.exposures[name] = exp
	return r.send(exposeMsg{
		Type:   msgExpose,
		Name:   name,
		Paths:  exp.MethodPaths(),
		Values: exp.Values,
	})
}

func (r *Runtime) Signal(fn string, name string) {
	gen := r.Generation()
	r.Post(func() {
		if r.Generation() != gen {
			return
		}
		if err := r.send(signalMsg{Type: msgSignal, Fn: fn, Name: name}); err != nil {
			r.logger.Debug("signal failed", "fn", fn, "err", err)
		}
	})
}

func (r *Runtime) Call(ref script.Ref, args ...any) error {
	if r.closed.Load() {
		return script.ErrClosed
	}
	if r.depth > 0 {
		return script.ErrReentrant
	}
	fn, ok := ref.Handle().(fnHandle)
	if !ok {
		return script.ErrNotCallable
	}

	encoded := make([]any, len(args))
	for i, a := range args {
		encoded[i] = encodeArg(a)
	}
	return r.send(fireMsg{Type: msgFire, Fn: int64(fn), Args: encoded})
}

func (r *Runtime) reply(msg replyMsg) {
	if err := r.send(msg); err != nil {
		r.logger.Debug("reply dropped", "id", msg.ID, "err", err)
	}
}

func (r *Runtime) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("remote: encode message: %w", err)
	}

	r.mu.Lock()
	s := r.sender
	r.mu.Unlock()

	if s == nil {
		return ErrNoSender
	}
	return s.Send(data)
}
