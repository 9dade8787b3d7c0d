package remote

import (
	_ "embed"
	"encoding/json"

	"github.com/arko-chat/hybrid/internal/script"
)

// Shim is injected into every page served through a remote runtime. It
// expects window.__nativeBridgeSend to be defined by the transport and
// defines window.__nativeBridgeReceive for the other direction.
//
//go:embed shim.js
var Shim string

const (
	msgReady  = "ready"
	msgCall   = "call"
	msgExpose = "expose"
	msgFire   = "fire"
	msgReply  = "reply"
	msgSignal = "signal"
)

// inbound is a message sent by script.
type inbound struct {
	Type  string            `json:"type"`
	Name  string            `json:"name,omitempty"`
	Path  string            `json:"path,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
	Reply int64             `json:"reply,omitempty"`
}

type exposeMsg struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Paths  []string       `json:"paths"`
	Values map[string]any `json:"values,omitempty"`
}

type fireMsg struct {
	Type string `json:"type"`
	Fn   int64  `json:"fn"`
	Args []any  `json:"args"`
}

type replyMsg struct {
	Type   string `json:"type"`
	ID     int64  `json:"id"`
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

type signalMsg struct {
	Type string `json:"type"`
	Fn   string `json:"fn"`
	Name string `json:"name"`
}

// fnMarker is how script encodes a function argument.
type fnMarker struct {
	Fn int64 `json:"$fn"`
}

type errMarker struct {
	Error string `json:"$error"`
}

type fnHandle int64

func encodeArg(x any) any {
	switch v := x.(type) {
	case *script.Error:
		return errMarker{Error: v.Message}
	}
	if x == script.Null {
		return nil
	}
	return x
}

func decodeFn(raw json.RawMessage) (fnHandle, bool) {
	var m fnMarker
	if err := json.Unmarshal(raw, &m); err != nil || m.Fn <= 0 {
		return 0, false
	}
	return fnHandle(m.Fn), true
}
