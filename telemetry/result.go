package telemetry

// Result is the outcome of one Request: a closed sum type with exactly four
// variants. The unexported marker method keeps the set closed to this
// package; callers discriminate with a type switch, e.g.:
//
//	switch r := result.(type) {
//	case telemetry.Success:
//	case telemetry.OutOfBounds:
//	case telemetry.Error:
//	case telemetry.PartialFailure:
//	}
type Result interface {
	isResult()
	Req() Request
}

// Success is returned when every eligible pair's share of the request was
// successfully dispatched (or the request was a zero-power no-op).
type Success struct {
	Request            Request
	SucceededPower     float64
	ExcessPower        float64
	SucceededBatteries map[int]struct{}
	FailedBatteries    map[int]struct{}
}

func (Success) isResult()      {}
func (s Success) Req() Request { return s.Request }

// OutOfBounds is returned when the request lies outside the aggregate
// inclusion bounds with AdjustPower=false, or is non-zero and lies strictly
// within the aggregate exclusion band.
type OutOfBounds struct {
	Request Request
	Bounds  PowerBounds
}

func (OutOfBounds) isResult()      {}
func (o OutOfBounds) Req() Request { return o.Request }

// Error is returned when a requested battery ID was not in the graph, or no
// eligible pair survived filtering while IncludeBrokenBatteries=false.
type Error struct {
	Request Request
	Msg     string
}

func (Error) isResult()      {}
func (e Error) Req() Request { return e.Request }

// PartialFailure is returned when dispatch to one or more inverters reported
// a failure.
type PartialFailure struct {
	Request            Request
	SucceededPower     float64
	FailedPower        float64
	SucceededBatteries map[int]struct{}
	FailedBatteries    map[int]struct{}
}

func (PartialFailure) isResult()      {}
func (p PartialFailure) Req() Request { return p.Request }
