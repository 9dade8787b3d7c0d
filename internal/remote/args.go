package remote

import (
	"bytes"
	"encoding/json"

	"github.com/arko-chat/hybrid/internal/script"
)

var jsonNull = []byte("null")

type jsonArgs struct {
	rt  *Runtime
	raw []json.RawMessage
}

func (a *jsonArgs) Runtime() script.Runtime {
	return a.rt
}

func (a *jsonArgs) Len() int {
	return len(a.raw)
}

func (a *jsonArgs) arg(i int) json.RawMessage {
	if i < 0 || i >= len(a.raw) {
		return nil
	}
	return a.raw[i]
}

func (a *jsonArgs) Missing(i int) bool {
	raw := a.arg(i)
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

func (a *jsonArgs) String(i int) (string, bool) {
	var s string
	if err := json.Unmarshal(a.arg(i), &s); err != nil {
		return "", false
	}
	return s, true
}

func (a *jsonArgs) Decode(i int, v any) error {
	if a.Missing(i) {
		return nil
	}
	return json.Unmarshal(a.arg(i), v)
}

func (a *jsonArgs) Func(i int) script.Ref {
	h, ok := decodeFn(a.arg(i))
	if !ok {
		return script.Ref{}
	}
	return script.NewRef(a.rt, h)
}

func (a *jsonArgs) Prop(i int, name string) script.Ref {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(a.arg(i), &obj); err != nil {
		return script.Ref{}
	}
	h, ok := decodeFn(obj[name])
	if !ok {
		return script.Ref{}
	}
	return script.NewRef(a.rt, h)
}
