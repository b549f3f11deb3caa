package resolvercore

import "time"

// Clock abstracts wall-clock access so NOW()/TODAY() are testable, the
// same seam the teacher's builtin function library uses.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
