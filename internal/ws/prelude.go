package ws

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed prelude.js
var prelude string

// Script returns the page script that connects a page to endpoint. It must
// run before remote.Shim.
func Script(endpoint string) string {
	quoted, _ := json.Marshal(endpoint)

	var b strings.Builder
	b.WriteString("window.__nativeBridgeEndpoint = ")
	b.Write(quoted)
	b.WriteString(";\n")
	b.WriteString(prelude)
	return b.String()
}
