package script

import (
	"errors"
	"sort"
)

var (
	ErrReentrant   = errors.New("script: call into script while a native method is running")
	ErrNotCallable = errors.New("script: reference is not callable")
	ErrClosed      = errors.New("script: runtime is closed")
)

// Runtime is one script execution context as seen from native code.
//
// Expose and Signal are called from the owner loop. Call is only valid from a
// task previously handed to Post; runtimes refuse it while script is blocked
// on a native method.
type Runtime interface {
	ID() string

	// Generation changes every time the underlying script context is
	// recreated. Refs taken in an older generation are stale.
	Generation() uint64

	// Expose installs exp under name on the global object. Exposing the same
	// *Exposure again reinstalls the object script already holds.
	Expose(name string, exp *Exposure) error

	// Signal calls the global function fn with the object exposed under name
	// on a later turn, when fn is defined.
	Signal(fn string, name string)

	// Post queues task on a later turn of the runtime. It reports false when
	// the runtime can no longer run tasks.
	Post(task func()) bool

	Call(ref Ref, args ...any) error
}

// Args gives typed access to the arguments of a native method call.
type Args interface {
	Runtime() Runtime
	Len() int

	// Missing reports whether argument i is absent, null or undefined.
	Missing(i int) bool

	String(i int) (string, bool)

	// Decode copies argument i into v, honouring json struct tags.
	Decode(i int, v any) error

	// Func returns argument i as a function reference, or the zero Ref.
	Func(i int) Ref

	// Prop returns the function-valued property name of object argument i,
	// or the zero Ref.
	Prop(i int, name string) Ref
}

// Method is a native function callable from script.
type Method func(args Args) (any, error)

// Exposure is the native object tree installed into a runtime. Method and
// value keys are dotted paths such as "navigation.animateForward".
type Exposure struct {
	Methods map[string]Method

	// Values become zero-argument functions returning a constant.
	Values map[string]any
}

func (e *Exposure) MethodPaths() []string {
	paths := make([]string, 0, len(e.Methods))
	for p := range e.Methods {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Null is the script-level null. Runtimes translate it to their own null.
var Null = null{}

type null struct{}

// Error is delivered to script as a native Error object.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
