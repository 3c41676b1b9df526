// Package chart renders forecast series as standalone ECharts pages.
package chart

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/i474232898/weather-forecast-dashboard/internal/forecast"
	"github.com/i474232898/weather-forecast-dashboard/internal/history"
)

const bandStack = "uncertainty"

const axisFormatter = `function (v) { return +(v - %[1]g).toFixed(2); }`

// tooltipFormatter relies on the series order lower, band, Forecast.
const tooltipFormatter = `function (params) {
	var lines = [params[0].axisValue], lower = 0;
	params.forEach(function (p) {
		if (p.seriesName === 'lower') {
			lower = p.value - %[1]g;
			lines.push('lower: ' + lower.toFixed(2));
		} else if (p.seriesName === 'band') {
			lines.push('upper: ' + (lower + p.value).toFixed(2));
		} else {
			lines.push(p.seriesName + ': ' + (p.value - %[1]g).toFixed(2));
		}
	});
	return lines.join('<br/>');
}`

// The band edges are the lower and upper bounds.
var boundStyle = opts.LineStyle{Width: 1, Opacity: 0.4}

// ErrNoPoints is returned when there is nothing to plot.
var ErrNoPoints = errors.New("no forecast points to plot")

// Forecast builds a line chart of the predicted values with a shaded band
// between the lower and upper bounds over the full date range.
func Forecast(feature history.Feature, points []forecast.Point) (*charts.Line, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	// ECharts stacks negative and positive values separately, so every series
	// is lifted by shift to keep the stacked band above zero. Axis labels and
	// the tooltip subtract it again.
	shift := 0.0
	for _, p := range points {
		if -p.Lower > shift {
			shift = -p.Lower
		}
	}

	dates := make([]string, len(points))
	predicted := make([]opts.LineData, len(points))
	lower := make([]opts.LineData, len(points))
	width := make([]opts.LineData, len(points))
	for i, p := range points {
		dates[i] = p.Date.Format(time.DateOnly)
		predicted[i] = opts.LineData{Value: p.Predicted + shift}
		lower[i] = opts.LineData{Value: p.Lower + shift}
		width[i] = opts.LineData{Value: p.Upper - p.Lower}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s Forecast", feature),
			Width:     "100%",
			Height:    "320px",
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s Forecast", feature)}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      true,
			Trigger:   "axis",
			Formatter: opts.FuncOpts(fmt.Sprintf(tooltipFormatter, shift)),
		}),
		charts.WithLegendOpts(opts.Legend{Show: true, Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: string(feature),
			AxisLabel: &opts.AxisLabel{
				Show:      true,
				Formatter: opts.FuncOpts(fmt.Sprintf(axisFormatter, shift)),
			},
		}),
	)
	line.SetXAxis(dates)

	line.AddSeries("lower", lower,
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: false}),
		charts.WithLineStyleOpts(boundStyle),
	)
	line.AddSeries("band", width,
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: false}),
		charts.WithLineStyleOpts(boundStyle),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}),
	)
	line.AddSeries("Forecast", predicted,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: false}),
	)

	return line, nil
}

// Render writes the chart for feature as a self-contained HTML page.
func Render(w io.Writer, feature history.Feature, points []forecast.Point) error {
	line, err := Forecast(feature, points)
	if err != nil {
		return err
	}
	return line.Render(w)
}
