// Package chart rasterizes price series to PNG with go-chart.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// FileName is the attachment name embeds reference as
// "attachment://chart.png".
const FileName = "chart.png"

// ErrNotEnoughData is returned for series with fewer than two points.
var ErrNotEnoughData = errors.New("chart: need at least two points")

// Palette colours one coin's line.
type Palette struct {
	Border drawing.Color
	Fill   drawing.Color
}

// Hex returns the border colour as 0xRRGGBB, for embeds.
func (p Palette) Hex() int {
	return int(p.Border.R)<<16 | int(p.Border.G)<<8 | int(p.Border.B)
}

var palettes = map[string]Palette{
	"bitcoin":     {Border: drawing.ColorFromHex("ffa301"), Fill: drawing.Color{R: 159, G: 110, B: 43, A: 200}},
	"ethereum":    {Border: drawing.ColorFromHex("ff0421"), Fill: drawing.Color{R: 173, G: 36, B: 43, A: 200}},
	"tether":      {Border: drawing.ColorFromHex("22a07a"), Fill: drawing.Color{R: 46, G: 78, B: 71, A: 200}},
	"binancecoin": {Border: drawing.ColorFromHex("f5bc00"), Fill: drawing.Color{R: 172, G: 136, B: 41, A: 200}},
	"terra":       {Border: drawing.ColorFromHex("f5bc00"), Fill: drawing.Color{R: 172, G: 136, B: 41, A: 200}},
	"solana":      {Border: drawing.ColorFromHex("9945ff"), Fill: drawing.Color{R: 116, G: 62, B: 184, A: 200}},
}

var defaultPalette = Palette{Border: drawing.ColorFromHex("009cdb"), Fill: drawing.Color{R: 53, G: 83, B: 192, A: 200}}

// PaletteFor returns the palette of a CoinGecko coin id.
func PaletteFor(coinID string) Palette {
	if p, ok := palettes[strings.ToLower(coinID)]; ok {
		return p
	}
	return defaultPalette
}

// Series is one line to draw.
type Series struct {
	Label   string
	Times   []time.Time
	Values  []float64
	Palette Palette
}

// Renderer draws charts at a fixed size.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a Renderer; sizes under 100px fall back to 970x650.
func NewRenderer(width, height int) *Renderer {
	if width < 100 || height < 100 {
		width, height = 970, 650
	}
	return &Renderer{width: width, height: height}
}

// Render draws s and returns PNG bytes.
func (r *Renderer) Render(s Series) ([]byte, error) {
	if len(s.Times) != len(s.Values) {
		return nil, fmt.Errorf("chart: %d times for %d values", len(s.Times), len(s.Values))
	}
	if len(s.Values) < 2 {
		return nil, ErrNotEnoughData
	}

	span := s.Times[len(s.Times)-1].Sub(s.Times[0])
	format := "Jan 02"
	if span <= 36*time.Hour {
		format = "15:04"
	}

	axisStyle := gochart.Style{FontSize: 14}
	graph := gochart.Chart{
		Width:  r.width,
		Height: r.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Style:          axisStyle,
			ValueFormatter: gochart.TimeValueFormatterWithFormat(format),
		},
		YAxis: gochart.YAxis{
			Style: axisStyle,
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    s.Label,
				XValues: s.Times,
				YValues: s.Values,
				Style: gochart.Style{
					StrokeColor: s.Palette.Border,
					StrokeWidth: 4,
					FillColor:   s.Palette.Fill,
				},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.LegendThin(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
