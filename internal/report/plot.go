package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"github.com/2beens/formcheck/internal/analysis"
	"github.com/2beens/formcheck/internal/exercise"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrEmptyTrace = errors.New("empty angle trace")

var (
	traceColor   = color.RGBA{B: 200, A: 255}
	downColor    = color.RGBA{R: 220, G: 120, A: 255}
	upColor      = color.RGBA{G: 160, A: 255}
	repMarkColor = color.RGBA{R: 200, A: 255}
)

// AngleTracePlot renders the primary angle over time as a PNG, with the
// phase thresholds and a marker on every frame that closed a repetition.
func AngleTracePlot(trace *analysis.Trace, profile *exercise.Profile) ([]byte, error) {
	if trace == nil || len(trace.Points) == 0 {
		return nil, ErrEmptyTrace
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s angle", profile.DisplayName, trace.Angle)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (deg)"
	p.Y.Min = 0
	p.Y.Max = 180
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(trace.Points))
	angleAt := make(map[int64]float64, len(trace.Points))
	for _, tp := range trace.Points {
		pts = append(pts, plotter.XY{X: seconds(tp.TimestampMS), Y: tp.Angle})
		angleAt[tp.TimestampMS] = tp.Angle
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("angle line: %w", err)
	}
	line.Color = traceColor
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("%s angle", trace.Angle), line)

	first, last := pts[0].X, pts[len(pts)-1].X
	for _, threshold := range []struct {
		label string
		value float64
		color color.Color
	}{
		{label: "enter down", value: profile.EnterDown, color: downColor},
		{label: "exit up", value: profile.ExitUp, color: upColor},
	} {
		tl, err := plotter.NewLine(plotter.XYs{{X: first, Y: threshold.value}, {X: last, Y: threshold.value}})
		if err != nil {
			return nil, fmt.Errorf("%s line: %w", threshold.label, err)
		}
		tl.Color = threshold.color
		tl.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		p.Add(tl)
		p.Legend.Add(fmt.Sprintf("%s (%.0f)", threshold.label, threshold.value), tl)
	}

	if len(trace.RepCloses) > 0 {
		marks := make(plotter.XYs, 0, len(trace.RepCloses))
		for _, ts := range trace.RepCloses {
			marks = append(marks, plotter.XY{X: seconds(ts), Y: angleAt[ts]})
		}
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, fmt.Errorf("rep markers: %w", err)
		}
		scatter.GlyphStyle.Color = repMarkColor
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add("rep", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false

	writer, err := p.WriterTo(vg.Points(800), vg.Points(400), "png")
	if err != nil {
		return nil, fmt.Errorf("plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("write plot: %w", err)
	}
	return buf.Bytes(), nil
}

func seconds(ms int64) float64 {
	return float64(ms) / 1000
}
