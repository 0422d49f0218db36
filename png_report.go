/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"os"

	"github.com/wcharczuk/go-chart"
)

// LatencyChart png line chart, one series per request kind
func LatencyChart(d map[string]*ChartLine, chartTitle string) *chart.Chart {
	var series []chart.Series
	var colorIndex int
	var allYValues []float64
	var maxX int
	for _, key := range sortedKeys(d) {
		value := d[key]
		allYValues = append(allYValues, value.YValues...)
		if len(value.XValues) > maxX {
			maxX = len(value.XValues)
		}
		series = append(series, chart.ContinuousSeries{
			Name: key,
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(colorIndex).WithAlpha(255),
				DotWidth:    3.0,
				StrokeWidth: 3,
			},
			XValues: value.XValues,
			YValues: value.YValues,
		})
		colorIndex++
	}
	// go-chart fails on a zero range
	max := maxValue(allYValues)
	if max < 1 {
		max = 1
	}
	chartData := &chart.Chart{
		Title: chartTitle,
		Background: chart.Style{
			Padding: chart.Box{
				Top:  20,
				Left: 150,
			},
		},
		XAxis: chart.XAxis{
			Name: "Attempt",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: float64(maxX + 1),
			},
		},
		YAxis: chart.YAxis{
			Name: "Response time (Ms)",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: max,
			},
		},
		Series: series,
		Width:  800,
		Height: 600,
	}
	chartData.Elements = []chart.Renderable{
		chart.LegendLeft(chartData),
	}
	return chartData
}

func RenderChart(chartData *chart.Chart, fileName string) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()
	return chartData.Render(chart.PNG, file)
}
