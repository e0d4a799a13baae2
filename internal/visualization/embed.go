package visualization

import _ "embed"

// indexHTML is the browser client served at "/".
//
//go:embed templates/index.html
var indexHTML []byte
