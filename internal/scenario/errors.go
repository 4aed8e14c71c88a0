package scenario

import (
	"errors"
	"fmt"
)

// ErrRateNotReached reports that the target request rate was not observed
// before the ramp-up timeout. It replaces the underlying timer cancellation so
// callers never see a bare context error.
var ErrRateNotReached = errors.New("target request rate not reached before timeout")

// ErrAlreadyStarted reports a second call to Start on the same scenario.
var ErrAlreadyStarted = errors.New("scenario already started")

// RateTooLowError reports that the request rate dropped below the target
// after the scenario had been established.
type RateTooLowError struct {
	Rate float64 // requests per second observed at detection time
}

func (e *RateTooLowError) Error() string {
	return fmt.Sprintf("request rate dropped below target: %.2f req/s", e.Rate)
}
