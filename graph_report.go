/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/charts"
)

type ChartLine struct {
	XValues []float64
	YValues []float64
}

// parseAttemptsData reads attempts csv log, one line per request kind,
// x is attempt number inside its kind, y is elapsed ms
func parseAttemptsData(path string) (map[string]*ChartLine, error) {
	reader, closer, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer closer()
	lines := make(map[string]*ChartLine)
	// skip csv header
	if _, err := reader.Read(); err != nil {
		return nil, errors.New("empty csv, nothing to plot")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(AttemptsCsvHeader) {
			return nil, errors.New("malformed csv")
		}

		kind := record[0]
		if _, ok := lines[kind]; !ok {
			lines[kind] = &ChartLine{}
		}
		elapsed, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return nil, err
		}
		lines[kind].XValues = append(lines[kind].XValues, float64(len(lines[kind].XValues)+1))
		lines[kind].YValues = append(lines[kind].YValues, elapsed)
	}
	if len(lines) == 0 {
		return nil, errors.New("empty csv, nothing to plot")
	}
	return lines, nil
}

// LatencyEChart html line chart, one series per request kind
func LatencyEChart(d map[string]*ChartLine, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.DataZoomOpts{},
		charts.TitleOpts{Title: title},
		charts.XAxisOpts{Name: "Attempt"},
		charts.YAxisOpts{Name: "Response (ms)"},
	)
	var longest []float64
	for _, v := range d {
		if len(v.XValues) > len(longest) {
			longest = v.XValues
		}
	}
	line.AddXAxis(longest)
	for _, k := range sortedKeys(d) {
		line.AddYAxis(k, d[k].YValues, defaultMaxLabel(k)...)
	}
	return line
}

func RenderEChart(data *charts.Line, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return data.Render(f)
}

// draws max label for every line
func defaultMaxLabel(metric string) []charts.SeriesOptser {
	return []charts.SeriesOptser{
		charts.MPNameTypeItem{Name: "max " + metric, Type: "max"},
		charts.MPStyleOpts{Label: charts.LabelTextOpts{Show: true}},
	}
}

func openCSV(path string) (*csv.Reader, func(), error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return csv.NewReader(csvFile), func() { _ = csvFile.Close() }, nil
}

func sortedKeys(d map[string]*ChartLine) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
