// Package mediafetch provides embedded assets for production builds.
package mediafetch

import _ "embed"

// IndexHTML is the single page UI served at GET /.
//
//go:embed frontend/index.html
var IndexHTML []byte
