package metrics

/*
Labels and so on for metrics used in kombine.
*/

const (
	LabelMethod  = "method"
	LabelRoute   = "route"
	LabelSuccess = "success"
	LabelTarget  = "target"
)
