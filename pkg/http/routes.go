package http

const (
	Ping        = "Ping"
	Version     = "Version"
	BuildTarget = "BuildTarget"
	ListTargets = "ListTargets"
)
