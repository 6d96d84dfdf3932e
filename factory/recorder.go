package factory

import "time"

// Recorder observes pipeline outcomes, typically for metrics.
type Recorder interface {
	CacheLookup(namespace string, action string, hit bool)
	TransportCall(namespace string, action string, method string, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) CacheLookup(string, string, bool) {}

func (noopRecorder) TransportCall(string, string, string, time.Duration, error) {}
