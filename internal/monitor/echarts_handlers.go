package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/drive-visualizer/internal/httputil"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

// RenderDrivenPath renders the buffered pose history as an HTML scatter in
// the visualization frame, coloured by speed.
func RenderDrivenPath(snap visualizer.Snapshot) ([]byte, error) {
	data := make([]opts.ScatterData, 0, len(snap.History))
	maxAbs := 1.0
	maxSpeed := 0.0
	for _, e := range snap.History {
		x := e.State.X - snap.Offset.X
		y := e.State.Y - snap.Offset.Y
		speed := math.Hypot(e.State.Vx, e.State.Vy)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(y)))
		maxSpeed = math.Max(maxSpeed, speed)
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, speed}})
	}
	if maxSpeed == 0 {
		maxSpeed = 1
	}
	pad := maxAbs * 1.1

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Driven Path", Theme: "dark", Width: "800px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{Title: "Driven Path", Subtitle: fmt.Sprintf("phase=%s poses=%d", snap.Phase, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxSpeed),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#4575b4", "#74add1", "#fdae61", "#f46d43", "#d73027"}},
		}),
	)
	scatter.AddSeries("driven_path", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ws *WebServer) handleDrivenPath(w http.ResponseWriter, r *http.Request) {
	page, err := RenderDrivenPath(ws.state.Snapshot())
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", page)
}
