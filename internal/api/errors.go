package api

type ErrorKind int

const (
	KindInvalidOptions ErrorKind = iota + 1
	KindMissingAction
	KindEmptyTitleAndMessage
	KindInvalidAction
	KindMissingShareItems
	KindInvalidURL
)

// ValidationError is a rejected command payload. It is reported to the
// caller's callback and no side effect takes place.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidOptions       = &ValidationError{KindInvalidOptions, "Options parameter could not be read."}
	ErrMissingAction        = &ValidationError{KindMissingAction, "Must have at least one action defined in `actions` array of the options parameter."}
	ErrEmptyTitleAndMessage = &ValidationError{KindEmptyTitleAndMessage, "Must have at least title or message defined in options parameter."}
	ErrInvalidAction        = &ValidationError{KindInvalidAction, "Every action must define an `id` and a `label`."}
	ErrMissingShareItems    = &ValidationError{KindMissingShareItems, "Must define both `message` and `url` in options parameter."}
	ErrInvalidURL           = &ValidationError{KindInvalidURL, "Must define a valid `url` in options parameter."}
)
