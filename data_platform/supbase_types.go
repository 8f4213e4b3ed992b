package dataplatform

import (
	"github.com/cepro/powercore/repository"
	"github.com/google/uuid"
)

// supabaseResult holds the json encoding schema for a dispatch result in
// supabase.
type supabaseResult struct {
	RequestID       uuid.UUID `json:"request_id"`
	Kind            string    `json:"kind"`
	Namespace       string    `json:"namespace"`
	RequestedPower  float64   `json:"requested_power"`
	SucceededPower  float64   `json:"succeeded_power"`
	ExcessPower     float64   `json:"excess_power"`
	FailedPower     float64   `json:"failed_power"`
	BoundsInclLower float64   `json:"bounds_incl_lower"`
	BoundsExclLower float64   `json:"bounds_excl_lower"`
	BoundsExclUpper float64   `json:"bounds_excl_upper"`
	BoundsInclUpper float64   `json:"bounds_incl_upper"`
	Msg             string    `json:"msg"`
}

func convertResults(stored []repository.StoredResult) []supabaseResult {
	out := make([]supabaseResult, 0, len(stored))
	for _, s := range stored {
		out = append(out, supabaseResult{
			RequestID:       s.RequestID,
			Kind:            s.Kind,
			Namespace:       s.Namespace,
			RequestedPower:  s.RequestedPower,
			SucceededPower:  s.SucceededPower,
			ExcessPower:     s.ExcessPower,
			FailedPower:     s.FailedPower,
			BoundsInclLower: s.BoundsInclLower,
			BoundsExclLower: s.BoundsExclLower,
			BoundsExclUpper: s.BoundsExclUpper,
			BoundsInclUpper: s.BoundsInclUpper,
			Msg:             s.Msg,
		})
	}
	return out
}
