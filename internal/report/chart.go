package report

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lumenwerk/panomask/internal/fsutil"
)

// WriteActivityChart renders the run's counter history as an interactive
// HTML line chart, one series per zone.
func WriteActivityChart(fs fsutil.FileSystem, path, title string, vectors [][]uint32) error {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}

	zones := 0
	for _, v := range vectors {
		if len(v) > zones {
			zones = len(v)
		}
	}

	x := make([]string, len(vectors))
	for i := range vectors {
		x[i] = fmt.Sprintf("%d", i)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Dwell Activity", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("states=%d zones=%d", len(vectors), zones)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "state"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "counter"}),
	)
	line.SetXAxis(x)

	for z := 0; z < zones; z++ {
		data := make([]opts.LineData, len(vectors))
		for i, v := range vectors {
			var val uint32
			if z < len(v) {
				val = v[z]
			}
			data[i] = opts.LineData{Value: val}
		}
		line.AddSeries(fmt.Sprintf("zone %d", z), data)
	}

	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	if err := line.Render(w); err != nil {
		w.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return w.Close()
}
