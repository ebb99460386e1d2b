// chartview/server.go
package chartview

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/markcheno/go-talib"
	"github.com/samber/lo"

	"otter/model"
	"otter/utils/log"
)

const smaPeriod = 20

// StartChartServer : 서버사이드 렌더 차트. 시간축 4장을 한 페이지에 쌓음
func StartChartServer(addr string, store *ViewStore) {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
            <h2>Otter Simulator Charts</h2>
            <p><a href="/chart">Go To Charts</a></p>
            </body></html>`))
	})
	mux.HandleFunc("/chart", func(w http.ResponseWriter, r *http.Request) {
		chartPageHandler(w, store)
	})

	log.Infof("[ChartView] listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("[ChartView] server error: %v", err)
	}
}

func chartPageHandler(w http.ResponseWriter, store *ViewStore) {
	page := components.NewPage()
	page.PageTitle = "Otter Simulator Charts"

	for _, tf := range model.Timeframes {
		payload, ok := store.Payload(tf)
		if !ok {
			continue
		}
		page.AddCharts(buildTimeframeChart(tf, payload, store.CloseSeries(tf)))
	}
	_ = page.Render(w)
}

// buildTimeframeChart : 봉차트 + SMA 오버레이 + (M10) 주문 마커
func buildTimeframeChart(tf model.Timeframe, payload model.ChartPayload, closes model.Series[float64]) *charts.Kline {
	kline := charts.NewKLine()
	n := len(payload.Candles)
	if n == 0 {
		return kline
	}

	xVals := make([]string, n)
	kValues := make([]opts.KlineData, n)

	// go-echarts Kline은 [open, close, low, high] 순서가 표준
	for i, c := range payload.Candles {
		xVals[i] = c.Time.Format("01/02 15:04")
		kValues[i] = opts.KlineData{
			Value: [4]float64{c.Open, c.Close, c.Low, c.High},
		}
	}

	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: string(tf),
			Show:  opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)
	kline.SetXAxis(xVals).
		AddSeries("KLine", kValues).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        "#ec0000",
			Color0:       "#00da3c",
			BorderColor:  "#8A0000",
			BorderColor0: "#008F28",
		}))

	if smaLine := buildSMAOverlay(xVals, closes); smaLine != nil {
		kline.Overlap(smaLine)
	}
	if len(payload.Markers) > 0 {
		kline.Overlap(buildMarkerOverlay(payload.Markers))
	}
	return kline
}

// buildSMAOverlay : 종가 SMA 라인. 봉이 기간보다 적으면 생략
func buildSMAOverlay(xVals []string, closes model.Series[float64]) *charts.Line {
	if closes.Length() < smaPeriod {
		return nil
	}

	sma := talib.Sma(closes.Values(), smaPeriod)
	line := charts.NewLine()
	line.SetXAxis(xVals).
		AddSeries("SMA(20)", lo.Map(sma, func(v float64, _ int) opts.LineData {
			return opts.LineData{Value: v}
		})).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}))
	return line
}

// buildMarkerOverlay : 주문(entry)/청산(exit) 마커를 산점도로 겹침
func buildMarkerOverlay(markers []model.Marker) *charts.Scatter {
	scatter := charts.NewScatter()

	entries := lo.Filter(markers, func(m model.Marker, _ int) bool {
		return m.Kind == model.EventKindEntry
	})
	exits := lo.Filter(markers, func(m model.Marker, _ int) bool {
		return m.Kind == model.EventKindExit
	})

	scatter.AddSeries("Entry", lo.Map(entries, markerToScatter)).
		AddSeries("Exit", lo.Map(exits, markerToScatter))
	return scatter
}

func markerToScatter(m model.Marker, _ int) opts.ScatterData {
	return opts.ScatterData{
		Value:      []interface{}{m.Candle.Time.Format("01/02 15:04"), m.Price},
		Symbol:     "triangle",
		SymbolSize: 12,
	}
}
