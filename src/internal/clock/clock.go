package clock

import "time"

// Clock supplies the current time. Services take it as a dependency so tests
// can pin the time instead of racing the wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func System() Clock {
	return systemClock{}
}
