package series

import "strings"

// GraphItem is one bar of the chart: a period, the subquery it counts and
// the count itself.
type GraphItem struct {
	Period string `json:"period"`
	Query  string `json:"query"`
	Value  int64  `json:"value"`
}

// GraphRequest describes a bucketed multi-query chart.
type GraphRequest struct {
	Subqueries [][]string `json:"subqueries"`
	Start      string     `json:"start"`
	Interval   string     `json:"interval"`
	N          int        `json:"n"`
	Title      string     `json:"title"`
}

// TimeParams is the request envelope minus the subqueries; it is echoed back
// in the chart under "time".
type TimeParams struct {
	Start    string `json:"start"`
	Interval string `json:"interval"`
	N        int    `json:"n"`
	Title    string `json:"title"`
}

// Params returns the request's time envelope.
func (r GraphRequest) Params() TimeParams {
	return TimeParams{Start: r.Start, Interval: r.Interval, N: r.N, Title: r.Title}
}

const periodDate = "2006-01-02"

// PeriodLabel renders an interval at calendar-date granularity,
// e.g. "2022-02-14 : 2022-02-15".
func PeriodLabel(iv Interval) string {
	return iv.Start.UTC().Format(periodDate) + " : " + iv.End.UTC().Format(periodDate)
}

// AssembleGraph flattens per-subquery count series into chart items, grouped
// by subquery in input order and by interval within each subquery.
func AssembleGraph(subqueries [][]string, series [][]int64, intervals []Interval) []GraphItem {
	labels := make([]string, len(intervals))
	for i, iv := range intervals {
		labels[i] = PeriodLabel(iv)
	}

	items := make([]GraphItem, 0, len(subqueries)*len(intervals))
	for i, words := range subqueries {
		if i >= len(series) {
			break
		}
		name := strings.Join(words, " ")
		for j, value := range series[i] {
			if j >= len(labels) {
				break
			}
			items = append(items, GraphItem{Period: labels[j], Query: name, Value: value})
		}
	}
	return items
}

// chartSchema returns a fresh Vega-Lite grouped bar chart envelope.
func chartSchema() map[string]any {
	return map[string]any{
		"$schema": "https://vega.github.io/schema/vega-lite/v5.json",
		"data":    map[string]any{},
		"mark":    "bar",
		"encoding": map[string]any{
			"x":       map[string]any{"field": "period", "axis": map[string]any{"labelAngle": -30}},
			"y":       map[string]any{"field": "value", "type": "quantitative"},
			"xOffset": map[string]any{"field": "query"},
			"color":   map[string]any{"field": "query"},
		},
	}
}

// Chart embeds items in the chart envelope together with the time params.
func Chart(params TimeParams, items []GraphItem) map[string]any {
	chart := chartSchema()
	chart["time"] = params
	chart["title"] = params.Title
	chart["data"] = map[string]any{"values": items}
	return chart
}
