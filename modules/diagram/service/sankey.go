// Package service renders the funnel Sankey diagram (C8 diagram) using
// fogleman/gg, grounded on the original matplotlib renderer's node layout
// and flow-clamping rules.
package service

import (
	"bytes"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/andreypavlenko/offertrack/internal/platform/runerr"
	"github.com/andreypavlenko/offertrack/modules/funnel/model"
)

const (
	canvasW = 1400.0
	canvasH = 900.0
	nodeW   = 0.024 * canvasW
)

type node struct {
	name    string
	x, y, h float64
	color   string
	value   int
}

func (n node) top() float64    { return n.y - n.h/2 }
func (n node) bottom() float64 { return n.y + n.h/2 }

// px maps a normalized axes coordinate (origin bottom-left, y up) to a pixel
// coordinate (origin top-left, y down), matching the python renderer's axes.
func px(xNorm, yNorm float64) (float64, float64) {
	return xNorm * canvasW, (1 - yNorm) * canvasH
}

// Renderer implements ports.Renderer with a pure-Go Sankey diagram.
type Renderer struct{}

// New creates a Sankey renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render draws the AI-schema funnel summary as a Sankey PNG, clamping every
// flow so a downstream stage never exceeds its upstream source and omitting
// nodes whose value is zero.
func (r *Renderer) Render(summary model.Summary, title, watermark string) ([]byte, error) {
	applications := max0(summary.Applications)
	interviews := max0(summary.Interviews)
	noResponse := max0(summary.NoResponse)
	offers := max0(summary.Offers)
	rejectedTotal := max0(summary.RejectionsTotal)
	rejectedDirect := max0(summary.RejectionsWithoutInterview)
	rejectedAfterInterview := max0(rejectedTotal - rejectedDirect)

	rejectedDirect = minInt(rejectedDirect, applications)
	noResponse = minInt(noResponse, max0(applications-rejectedDirect))
	interviews = minInt(interviews, max0(applications-rejectedDirect-noResponse))
	offers = minInt(offers, interviews)
	rejectedAfterInterview = minInt(rejectedAfterInterview, max0(interviews-offers))

	maxTotal := applications
	if maxTotal < 1 {
		maxTotal = 1
	}
	scale := 0.62 / float64(maxTotal)

	nodes := map[string]*node{}
	if applications > 0 {
		nodes["applications"] = &node{name: "Applications", x: 0.08, y: 0.50, h: float64(applications) * scale, color: "#BDBDBD", value: applications}
	}

	const stageX, stageGap, stageTop = 0.40, 0.03, 0.88
	cursor := stageTop
	if interviews > 0 {
		h := float64(interviews) * scale
		y := cursor - h/2
		nodes["interviews"] = &node{name: "Interviews", x: stageX, y: y, h: h, color: "#4C79A8", value: interviews}
		cursor -= h + stageGap
	}
	if rejectedDirect > 0 {
		h := float64(rejectedDirect) * scale
		y := cursor - h/2
		nodes["rejected_direct"] = &node{name: "Rejected (Direct)", x: stageX, y: y, h: h, color: "#E15B61", value: rejectedDirect}
		cursor -= h + stageGap
	}
	if noResponse > 0 {
		h := float64(noResponse) * scale
		y := cursor - h/2
		nodes["no_response"] = &node{name: "No Response", x: stageX, y: y, h: h, color: "#4A4A4A", value: noResponse}
	}
	if rejectedAfterInterview > 0 {
		h := float64(rejectedAfterInterview) * scale
		nodes["rejected_after_interview"] = &node{name: "Rejected (After Interview)", x: 0.70, y: 0.62, h: h, color: "#D1495B", value: rejectedAfterInterview}
	}
	if offers > 0 {
		h := float64(offers) * scale
		nodes["offers"] = &node{name: "Offers", x: 0.84, y: 0.82, h: h, color: "#4CAF50", value: offers}
	}

	type flow struct {
		src, dst string
		val      int
		color    string
	}
	var flows []flow
	if interviews > 0 {
		flows = append(flows, flow{"applications", "interviews", interviews, "#A9C1DA"})
	}
	if noResponse > 0 {
		flows = append(flows, flow{"applications", "no_response", noResponse, "#8D8D8D"})
	}
	if rejectedDirect > 0 {
		flows = append(flows, flow{"applications", "rejected_direct", rejectedDirect, "#F0AAB1"})
	}
	if offers > 0 {
		if _, ok := nodes["interviews"]; ok {
			flows = append(flows, flow{"interviews", "offers", offers, "#AADAA6"})
		}
	}
	if rejectedAfterInterview > 0 {
		if _, ok := nodes["interviews"]; ok {
			flows = append(flows, flow{"interviews", "rejected_after_interview", rejectedAfterInterview, "#F08A96"})
		}
	}

	dc := gg.NewContext(int(canvasW), int(canvasH))
	dc.SetHexColor("#FFFFFF")
	dc.Clear()

	outCursor := map[string]float64{}
	inCursor := map[string]float64{}
	for k, n := range nodes {
		outCursor[k] = n.top()
		inCursor[k] = n.top()
	}
	allocOut := func(k string, v int) (float64, float64) {
		h := float64(v) * scale
		y0 := outCursor[k]
		y1 := y0 + h
		outCursor[k] = y1
		return y0, y1
	}
	allocIn := func(k string, v int) (float64, float64) {
		h := float64(v) * scale
		y0 := inCursor[k]
		y1 := y0 + h
		inCursor[k] = y1
		return y0, y1
	}

	for _, f := range flows {
		if f.val <= 0 {
			continue
		}
		y0t, y0b := allocOut(f.src, f.val)
		y1t, y1b := allocIn(f.dst, f.val)
		src, dst := nodes[f.src], nodes[f.dst]
		drawFlow(dc, src.x+0.024/2, dst.x-0.024/2, y0t, y0b, y1t, y1b, f.color)
	}

	for _, n := range nodes {
		x0, y0 := px(n.x-0.024/2, n.top())
		x1, y1 := px(n.x+0.024/2, n.bottom())
		dc.SetHexColor(n.color)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()

		cx, cy := px(n.x+0.038, n.y)
		dc.SetHexColor("#1A1A1A")
		dc.DrawStringAnchored(strconv.Itoa(n.value), cx, cy-14, 0, 0.5)
		dc.DrawStringAnchored(n.name, cx, cy+14, 0, 0.5)
	}

	tx, ty := px(0.5, 0.06)
	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(title, tx, ty, 0.5, 0.5)

	if watermark != "" {
		wx, wy := px(0.985, 0.008)
		dc.SetRGBA255(119, 119, 119, 230)
		dc.DrawStringAnchored(watermark, wx, wy, 1, 1)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, runerr.New(runerr.KindRenderFailure, err, "encode sankey png")
	}
	return buf.Bytes(), nil
}

func drawFlow(dc *gg.Context, x0Norm, x1Norm, y0top, y0bot, y1top, y1bot float64, hexColor string) {
	x0, y0t := px(x0Norm, y0top)
	_, y0b := px(x0Norm, y0bot)
	x1, y1t := px(x1Norm, y1top)
	_, y1b := px(x1Norm, y1bot)

	c := (x1 - x0) * 0.45

	dc.MoveTo(x0, y0t)
	dc.CubicTo(x0+c, y0t, x1-c, y1t, x1, y1t)
	dc.LineTo(x1, y1b)
	dc.CubicTo(x1-c, y1b, x0+c, y0b, x0, y0b)
	dc.ClosePath()

	dc.SetHexColor(hexColor)
	dc.FillPreserve()
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

