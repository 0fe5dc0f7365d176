package models

// TimeFilter is a named chart time window selected by the dashboard.
type TimeFilter string

const (
	FilterInit    TimeFilter = "init"
	FilterDay     TimeFilter = "1day"
	FilterWeek    TimeFilter = "1week"
	FilterMonth   TimeFilter = "1month"
	Filter3Months TimeFilter = "3month"
	Filter6Months TimeFilter = "6month"
	FilterYear    TimeFilter = "1year"
	Filter2Years  TimeFilter = "2year"
	FilterAllTime TimeFilter = "all"
)

// DataQuery is the decoded query string of a chart data request.
type DataQuery struct {
	Filter TimeFilter `schema:"filter"`
}
