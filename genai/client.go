// Package genai wraps the external generation services used to produce plant
// art: text generation for species descriptions, image generation for stage
// rasters, background removal, and raster-to-SVG vectorization. Each vendor
// is an opaque HTTP API configured through environment variables.
package genai

import (
	"net/http"
	"time"
)

// Generation calls are slow; image generation in particular can take the
// better part of a minute.
var httpCli = &http.Client{Timeout: 90 * time.Second}
