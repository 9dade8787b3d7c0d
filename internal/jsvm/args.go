package jsvm

import (
	"github.com/arko-chat/hybrid/internal/script"
	"github.com/dop251/goja"
)

type args struct {
	vm   *VM
	rt   *goja.Runtime
	call goja.FunctionCall
}

func (a *args) Runtime() script.Runtime {
	return a.vm
}

func (a *args) Len() int {
	return len(a.call.Arguments)
}

func (a *args) Missing(i int) bool {
	v := a.call.Argument(i)
	return goja.IsUndefined(v) || goja.IsNull(v)
}

func (a *args) String(i int) (string, bool) {
	s, ok := a.call.Argument(i).Export().(string)
	return s, ok
}

func (a *args) Decode(i int, v any) error {
	return a.rt.ExportTo(a.call.Argument(i), v)
}

func (a *args) Func(i int) script.Ref {
	fn, ok := goja.AssertFunction(a.call.Argument(i))
	if !ok {
		return script.Ref{}
	}
	return script.NewRef(a.vm, fn)
}

func (a *args) Prop(i int, name string) script.Ref {
	obj, ok := a.call.Argument(i).(*goja.Object)
	if !ok {
		return script.Ref{}
	}
	fn, ok := goja.AssertFunction(obj.Get(name))
	if !ok {
		return script.Ref{}
	}
	return script.NewRef(a.vm, fn)
}
