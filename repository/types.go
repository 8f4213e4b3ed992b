package repository

import (
	"fmt"

	"github.com/cepro/powercore/telemetry"
	"github.com/google/uuid"
)

// StoredResult is the gorm-mapped, flattened persistence shape for a
// telemetry.Result: the sum type is collapsed to a type-discriminator
// column plus every variant's fields, so gorm can map it directly.
type StoredResult struct {
	ID                 uint `gorm:"primaryKey"`
	RequestID          uuid.UUID
	Kind               string
	Namespace          string
	RequestedPower     float64
	SucceededPower     float64
	ExcessPower        float64
	FailedPower        float64
	BoundsInclLower    float64
	BoundsExclLower    float64
	BoundsExclUpper    float64
	BoundsInclUpper    float64
	Msg                string
	UploadAttemptCount uint
}

const (
	kindSuccess        = "success"
	kindOutOfBounds    = "out_of_bounds"
	kindError          = "error"
	kindPartialFailure = "partial_failure"
)

// NewStoredResult flattens a telemetry.Result into its persisted shape. It
// is exported so callers (e.g. the data platform uploader) can build an
// upload payload for fresh results without a DB round trip.
func NewStoredResult(result telemetry.Result) StoredResult {
	req := result.Req()
	stored := StoredResult{
		RequestID:      req.ID,
		Namespace:      req.Namespace,
		RequestedPower: req.Power,
	}

	switch r := result.(type) {
	case telemetry.Success:
		stored.Kind = kindSuccess
		stored.SucceededPower = r.SucceededPower
		stored.ExcessPower = r.ExcessPower
	case telemetry.OutOfBounds:
		stored.Kind = kindOutOfBounds
		stored.BoundsInclLower = r.Bounds.InclLower
		stored.BoundsExclLower = r.Bounds.ExclLower
		stored.BoundsExclUpper = r.Bounds.ExclUpper
		stored.BoundsInclUpper = r.Bounds.InclUpper
	case telemetry.Error:
		stored.Kind = kindError
		stored.Msg = r.Msg
	case telemetry.PartialFailure:
		stored.Kind = kindPartialFailure
		stored.SucceededPower = r.SucceededPower
		stored.FailedPower = r.FailedPower
	default:
		panic(fmt.Sprintf("unknown result type: %T", result))
	}

	return stored
}
