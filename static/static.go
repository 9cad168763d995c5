// Package static embeds the static assets.
package static

import "embed"

//go:embed css/*.css
var FS embed.FS
