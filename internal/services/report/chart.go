package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/navfolio/internal/models"
)

// investedSeries returns the cumulative net invested capital after each
// dated purchase or redemption, extended flat to the valuation date.
// Redemptions reduce the invested amount by their proceeds.
func investedSeries(v *models.Valuation) ([]time.Time, []float64) {
	var (
		xs    []time.Time
		ys    []float64
		total float64
	)
	for _, f := range v.CashFlows {
		if f.Kind == models.CashFlowTerminal {
			continue
		}
		total -= f.Amount
		if n := len(xs); n > 0 && xs[n-1].Equal(f.OccurredAt) {
			ys[n-1] = total
			continue
		}
		xs = append(xs, f.OccurredAt)
		ys = append(ys, total)
	}
	if len(xs) > 0 && v.AsOf.After(xs[len(xs)-1]) {
		xs = append(xs, v.AsOf)
		ys = append(ys, total)
	}
	return xs, ys
}

// RenderGrowthChart renders a PNG line chart of net invested capital over
// time (gray dashed) against the current portfolio value (blue).
// Returns raw PNG bytes.
func RenderGrowthChart(v *models.Valuation) ([]byte, error) {
	xValues, investedY := investedSeries(v)
	if len(xValues) < 2 {
		return nil, fmt.Errorf("need at least 2 dated cash flows, got %d", len(xValues))
	}

	value := v.TotalValue.InexactFloat64()
	valueSeries := chart.TimeSeries{
		Name: fmt.Sprintf("Current Value (%s)", v.AsOf.Format("2006-01-02")),
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: []time.Time{xValues[0], xValues[len(xValues)-1]},
		YValues: []float64{value, value},
	}

	investedLine := chart.TimeSeries{
		Name: "Net Invested",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: investedY,
	}

	graph := chart.Chart{
		Title:  "Invested Capital vs Value",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1fk", f/1000)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			investedLine,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
