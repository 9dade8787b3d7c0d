package jsvm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/arko-chat/hybrid/internal/loop"
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/dop251/goja"
)

var _ script.Runtime = (*VM)(nil)

// VM is an in-process script context backed by goja. It is confined to its
// loop: every method except Post, ID and Generation must be called from a
// loop task (or the goroutine that drains the loop).
type VM struct {
	id     string
	loop   *loop.Loop
	logger *slog.Logger

	rt      *goja.Runtime
	gen     atomic.Uint64
	closed  atomic.Bool
	depth   int
	exposed map[string]exposedObject

	onContext func(script.Runtime)
}

type exposedObject struct {
	src *script.Exposure
	obj *goja.Object
}

func New(id string, l *loop.Loop, logger *slog.Logger) *VM {
	v := &VM{
		id:     id,
		loop:   l,
		logger: logger.With("runtime", id),
	}
	v.gen.Store(1)
	v.rt = v.newContext()
	return v
}

func (v *VM) ID() string {
	return v.id
}

func (v *VM) Generation() uint64 {
	return v.gen.Load()
}

// OnContext registers fn to run after every Reset.
func (v *VM) OnContext(fn func(script.Runtime)) {
	v.onContext = fn
}

// Reset throws the current script context away and starts a fresh one.
// Refs and exposures from the old context become stale.
func (v *VM) Reset() {
	v.gen.Add(1)
	v.rt = v.newContext()
	if v.onContext != nil {
		v.onContext(v)
	}
}

func (v *VM) Close() {
	v.closed.Store(true)
	v.gen.Add(1)
}

func (v *VM) Post(task func()) bool {
	if v.closed.Load() {
		return false
	}
	return v.loop.Post(task)
}

// RunString evaluates src on the current turn.
func (v *VM) RunString(src string) (goja.Value, error) {
	if v.closed.Load() {
		return nil, script.ErrClosed
	}
	return v.rt.RunString(src)
}

func (v *VM) Expose(name string, exp *script.Exposure) error {
	if v.closed.Load() {
		return script.ErrClosed
	}
	if cur, ok := v.exposed[name]; ok && cur.src == exp {
		return v.rt.Set(name, cur.obj)
	}

	rt := v.rt
	root := rt.NewObject()
	for path, m := range exp.Methods {
		if err := define(rt, root, path, v.wrap(rt, m)); err != nil {
			return fmt.Errorf("expose %s.%s: %w", name, path, err)
		}
	}
	for path, val := range exp.Values {
		fn := func(goja.FunctionCall) goja.Value {
			return v.toValue(rt, val)
		}
		if err := define(rt, root, path, fn); err != nil {
			return fmt.Errorf("expose %s.%s: %w", name, path, err)
		}
	}

	v.exposed[name] = exposedObject{src: exp, obj: root}
	return rt.Set(name, root)
}

func (v *VM) Signal(fn string, name string) {
	gen := v.Generation()
	v.Post(func() {
		if v.Generation() != gen {
			return
		}
		cb, ok := goja.AssertFunction(v.rt.Get(fn))
		if !ok {
			return
		}
		if _, err := cb(goja.Undefined(), v.rt.Get(name)); err != nil {
			v.logger.Debug("signal failed", "fn", fn, "err", err)
		}
	})
}

func (v *VM) Call(ref script.Ref, args ...any) error {
	if v.closed.Load() {
		return script.ErrClosed
	}
	if v.depth > 0 {
		return script.ErrReentrant
	}
	fn, ok := ref.Handle().(goja.Callable)
	if !ok {
		return script.ErrNotCallable
	}

	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = v.toValue(v.rt, a)
	}
	_, err := fn(goja.Undefined(), vals...)
	return err
}

func (v *VM) newContext() *goja.Runtime {
	rt := goja.New()
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	v.exposed = make(map[string]exposedObject)

	rt.Set("window", rt.GlobalObject())

	console := rt.NewObject()
	console.Set("log", v.makeConsoleFunc(slog.LevelInfo))
	console.Set("info", v.makeConsoleFunc(slog.LevelInfo))
	console.Set("warn", v.makeConsoleFunc(slog.LevelWarn))
	console.Set("error", v.makeConsoleFunc(slog.LevelError))
	rt.Set("console", console)

	rt.Set("setTimeout", v.setTimeout)
	return rt
}

func (v *VM) wrap(rt *goja.Runtime, m script.Method) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		v.depth++
		defer func() { v.depth-- }()

		res, err := m(&args{vm: v, rt: rt, call: call})
		if err != nil {
			panic(rt.NewGoError(err))
		}
		if res == nil {
			return goja.Undefined()
		}
		return v.toValue(rt, res)
	}
}

func (v *VM) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return goja.Undefined()
	}

	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	var extra []goja.Value
	if len(call.Arguments) > 2 {
		extra = append(extra, call.Arguments[2:]...)
	}

	gen := v.Generation()
	run := func() {
		if v.Generation() != gen {
			return
		}
		if _, err := fn(goja.Undefined(), extra...); err != nil {
			v.logger.Debug("timer callback failed", "err", err)
		}
	}

	if delay <= 0 {
		v.Post(run)
	} else {
		time.AfterFunc(delay, func() { v.Post(run) })
	}
	return goja.Undefined()
}

func (v *VM) makeConsoleFunc(level slog.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		v.logger.Log(context.Background(), level, "console", "message", strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (v *VM) toValue(rt *goja.Runtime, x any) goja.Value {
	switch val := x.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return val
	case *script.Error:
		ctor, ok := goja.AssertConstructor(rt.Get("Error"))
		if !ok {
			return rt.ToValue(val.Message)
		}
		obj, err := ctor(nil, rt.ToValue(val.Message))
		if err != nil {
			return rt.ToValue(val.Message)
		}
		return obj
	}
	if x == script.Null {
		return goja.Null()
	}
	return rt.ToValue(x)
}

func define(rt *goja.Runtime, root *goja.Object, path string, fn func(goja.FunctionCall) goja.Value) error {
	parts := strings.Split(path, ".")
	obj := root
	for _, part := range parts[:len(parts)-1] {
		next := obj.Get(part)
		if next == nil || goja.IsUndefined(next) {
			child := rt.NewObject()
			if err := obj.Set(part, child); err != nil {
				return err
			}
			obj = child
			continue
		}
		obj = next.ToObject(rt)
	}
	return obj.Set(parts[len(parts)-1], fn)
}
