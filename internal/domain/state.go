package domain

type TrackerState string

const (
	TrackerStateIdle    TrackerState = "idle"
	TrackerStateRunning TrackerState = "running"
)
