package dto

// ChartResponse carries server-rendered echarts markup for embedding.
type ChartResponse struct {
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	PeriodType string   `json:"periodType"`
	Metrics    []string `json:"metrics"`
	HTML       string   `json:"html"`
}
