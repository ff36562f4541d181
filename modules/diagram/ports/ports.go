// Package ports defines the diagram renderer contract (C8 diagram).
package ports

import "github.com/andreypavlenko/offertrack/modules/funnel/model"

// Renderer produces a Sankey-style funnel diagram as encoded image bytes.
// Implementations must suppress zero-valued nodes and clamp flows so stage
// counts never exceed their upstream source.
type Renderer interface {
	Render(summary model.Summary, title, watermark string) ([]byte, error)
}
