// Package forecast loads serialized time-series models and evaluates them
// for a sequence of dates.
package forecast

import (
	"fmt"
	"time"
)

// Point is one row of model output.
type Point struct {
	Date      time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
}

// Model produces one Point per input date. Implementations must be safe for
// concurrent use once constructed.
type Model interface {
	Predict(dates []time.Time) ([]Point, error)
	Version() string
}

// ArtifactError reports a model artifact that is missing, unreadable,
// malformed or uses features the evaluator does not support.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
