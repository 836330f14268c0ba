package usage

import (
	"errors"
	"math"
)

// Resource identifies a metered resource kind.
type Resource string

const (
	// ResourceMessages counts chat messages sent, in whole messages.
	ResourceMessages Resource = "messages"
	// ResourceVoiceMinutes counts voice usage, in tenths of a minute.
	ResourceVoiceMinutes Resource = "voice_minutes"
	// ResourceVoiceSessions counts voice sessions started, in whole sessions.
	ResourceVoiceSessions Resource = "voice_sessions"
)

// Scale returns the number of counter units per user-facing unit.
// Messages and sessions count in ones; voice minutes count in tenths so
// policy arithmetic stays integral and display rounding happens only at
// the presentation boundary.
func (r Resource) Scale() int64 {
	if r == ResourceVoiceMinutes {
		return 10
	}
	return 1
}

// Valid reports whether r is a known resource kind.
func (r Resource) Valid() bool {
	switch r {
	case ResourceMessages, ResourceVoiceMinutes, ResourceVoiceSessions:
		return true
	}
	return false
}

// Units is an integer counter amount at the resource's scale.
type Units int64

// UnitsFromValue converts a user-facing value (e.g. 2.5 minutes) to
// counter units, rounding to the nearest unit.
func UnitsFromValue(r Resource, value float64) Units {
	return Units(math.Round(value * float64(r.Scale())))
}

// Value converts counter units back to the user-facing value.
func (u Units) Value(r Resource) float64 {
	return float64(u) / float64(r.Scale())
}

// ErrInvalidDelta is returned when an increment is zero or negative.
// Usage only moves forward through the policy; corrections are an
// administrative concern.
var ErrInvalidDelta = errors.New("usage: delta must be positive")

// Decision is the outcome of evaluating an increment against a cap.
// Amount is the post-decision counter value: current+delta when allowed,
// current unchanged when denied.
type Decision struct {
	Allowed      bool
	Amount       Units
	Max          Units
	Remaining    Units
	Percentage   float64
	LimitReached bool
}

// Evaluate decides whether an increment of delta may be applied on top of
// current without exceeding max. A max of 0 means unlimited. The caller
// must not increment the store when Allowed is false.
func Evaluate(current, delta, max Units) (Decision, error) {
	if delta <= 0 {
		return Decision{}, ErrInvalidDelta
	}
	if max == 0 {
		return Decision{
			Allowed: true,
			Amount:  current + delta,
		}, nil
	}
	d := Decision{
		Allowed: current+delta <= max,
		Max:     max,
	}
	if d.Allowed {
		d.Amount = current + delta
	} else {
		d.Amount = current
	}
	fill(&d)
	return d, nil
}

// Status describes the current counter state without applying an
// increment. Used by the read endpoints.
func Status(amount, max Units) Decision {
	d := Decision{Allowed: true, Amount: amount, Max: max}
	if max == 0 {
		return d
	}
	fill(&d)
	return d
}

func fill(d *Decision) {
	d.Remaining = d.Max - d.Amount
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	pct := float64(d.Amount) / float64(d.Max) * 100
	if pct > 100 {
		pct = 100
	}
	// One decimal for display.
	d.Percentage = math.Round(pct*10) / 10
	d.LimitReached = d.Amount >= d.Max
}
