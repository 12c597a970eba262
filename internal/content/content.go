// Package content embeds the default response table of the productivity assistant.
package content

import _ "embed"

// Responses is the YAML source of the default response table.
//
//go:embed responses.yaml
var Responses []byte

// Name labels the embedded table in logs and CLI output.
const Name = "builtin"
