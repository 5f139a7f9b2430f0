package monitor

import (
	"fmt"

	"github.com/signalist/alert-monitor/internal/store"
)

// Evaluation thresholds. These are product-level constants shared with the
// dashboard copy; changing them changes when users get notified.
const (
	rsiOversoldLevel   = 30.0
	rsiOverboughtLevel = 70.0
	volumeSpikeRatio   = 2.0
)

// Outcome is the result of evaluating one condition against one snapshot.
type Outcome int

const (
	// NoTrigger means the condition was evaluated and did not fire.
	NoTrigger Outcome = iota
	// Trigger means the condition fired.
	Trigger
	// Skipped means the snapshot lacks the data the condition needs, so it
	// could not be evaluated this cycle.
	Skipped
)

// Evaluate decides whether a condition fires against a snapshot. It is a pure
// function: no I/O, no clock. The returned message is the human-readable line
// included in the user's consolidated notification when the condition fires.
func Evaluate(cond store.Condition, snap *Snapshot) (Outcome, string) {
	switch cond.Type {
	case store.RSIOversold:
		if snap.RSI == nil {
			return Skipped, ""
		}
		if *snap.RSI < rsiOversoldLevel {
			return Trigger, fmt.Sprintf("%s RSI is %.1f, below the oversold threshold of %.0f",
				snap.Symbol, *snap.RSI, rsiOversoldLevel)
		}
		return NoTrigger, ""

	case store.RSIOverbought:
		if snap.RSI == nil {
			return Skipped, ""
		}
		if *snap.RSI > rsiOverboughtLevel {
			return Trigger, fmt.Sprintf("%s RSI is %.1f, above the overbought threshold of %.0f",
				snap.Symbol, *snap.RSI, rsiOverboughtLevel)
		}
		return NoTrigger, ""

	case store.PriceAbove:
		if cond.Value == nil || snap.Price == nil {
			return Skipped, ""
		}
		if *snap.Price > *cond.Value {
			return Trigger, fmt.Sprintf("%s is trading at $%.2f, above your target of $%.2f",
				snap.Symbol, *snap.Price, *cond.Value)
		}
		return NoTrigger, ""

	case store.PriceBelow:
		if cond.Value == nil || snap.Price == nil {
			return Skipped, ""
		}
		if *snap.Price < *cond.Value {
			return Trigger, fmt.Sprintf("%s is trading at $%.2f, below your target of $%.2f",
				snap.Symbol, *snap.Price, *cond.Value)
		}
		return NoTrigger, ""

	case store.VolumeSpike:
		if snap.Volume == nil || snap.PrevVolume == nil {
			return Skipped, ""
		}
		// Guard against a zero previous session: no baseline, no spike.
		if *snap.PrevVolume <= 0 {
			return NoTrigger, ""
		}
		ratio := *snap.Volume / *snap.PrevVolume
		if ratio > volumeSpikeRatio {
			return Trigger, fmt.Sprintf("%s volume is %.1fx the previous session (%.0f vs %.0f)",
				snap.Symbol, ratio, *snap.Volume, *snap.PrevVolume)
		}
		return NoTrigger, ""

	case store.MovingAverageCross:
		// The snapshot carries no moving-average series yet, so this
		// condition cannot be evaluated. It is defined in the dashboard's
		// condition taxonomy and will light up once the provider supplies
		// MA data.
		return Skipped, ""

	default:
		return Skipped, ""
	}
}
