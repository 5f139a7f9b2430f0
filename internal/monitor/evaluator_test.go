package monitor

import (
	"strings"
	"testing"
	"time"

	"github.com/signalist/alert-monitor/internal/store"
)

func fptr(v float64) *float64 { return &v }

func snap(price, rsi, vol, prevVol *float64) *Snapshot {
	return &Snapshot{
		Symbol:     "AAPL",
		Price:      price,
		RSI:        rsi,
		Volume:     vol,
		PrevVolume: prevVol,
		FetchedAt:  time.Now(),
	}
}

func TestEvaluateRSIOversold(t *testing.T) {
	tests := []struct {
		name string
		rsi  *float64
		want Outcome
	}{
		{"well below threshold", fptr(20), Trigger},
		{"just below threshold", fptr(29.9), Trigger},
		{"exactly at threshold", fptr(30), NoTrigger},
		{"above threshold", fptr(45), NoTrigger},
		{"missing rsi", nil, Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(store.Condition{Type: store.RSIOversold}, snap(nil, tt.rsi, nil, nil))
			if got != tt.want {
				t.Errorf("Evaluate(rsi_oversold, rsi=%v) = %v, want %v", tt.rsi, got, tt.want)
			}
		})
	}
}

func TestEvaluateRSIOverbought(t *testing.T) {
	tests := []struct {
		name string
		rsi  *float64
		want Outcome
	}{
		{"above threshold", fptr(80), Trigger},
		{"just above threshold", fptr(70.1), Trigger},
		{"exactly at threshold", fptr(70), NoTrigger},
		{"below threshold", fptr(55), NoTrigger},
		{"missing rsi", nil, Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(store.Condition{Type: store.RSIOverbought}, snap(nil, tt.rsi, nil, nil))
			if got != tt.want {
				t.Errorf("Evaluate(rsi_overbought, rsi=%v) = %v, want %v", tt.rsi, got, tt.want)
			}
		})
	}
}

func TestEvaluatePriceAbove(t *testing.T) {
	tests := []struct {
		name   string
		price  *float64
		target *float64
		want   Outcome
	}{
		{"price above target", fptr(105), fptr(100), Trigger},
		{"price equal to target", fptr(100), fptr(100), NoTrigger},
		{"price below target", fptr(95), fptr(100), NoTrigger},
		{"missing price", nil, fptr(100), Skipped},
		{"missing target", fptr(105), nil, Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(store.Condition{Type: store.PriceAbove, Value: tt.target}, snap(tt.price, nil, nil, nil))
			if got != tt.want {
				t.Errorf("Evaluate(price_above) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluatePriceBelow(t *testing.T) {
	tests := []struct {
		name   string
		price  *float64
		target *float64
		want   Outcome
	}{
		{"price below target", fptr(45), fptr(50), Trigger},
		{"price equal to target", fptr(50), fptr(50), NoTrigger},
		{"price above target", fptr(55), fptr(50), NoTrigger},
		{"missing price", nil, fptr(50), Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(store.Condition{Type: store.PriceBelow, Value: tt.target}, snap(tt.price, nil, nil, nil))
			if got != tt.want {
				t.Errorf("Evaluate(price_below) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateVolumeSpike(t *testing.T) {
	tests := []struct {
		name    string
		vol     *float64
		prevVol *float64
		want    Outcome
	}{
		{"spike over 2x", fptr(2500), fptr(1000), Trigger},
		{"exactly 2x", fptr(2000), fptr(1000), NoTrigger},
		{"below 2x", fptr(1500), fptr(1000), NoTrigger},
		{"zero previous volume", fptr(5000), fptr(0), NoTrigger},
		{"negative previous volume", fptr(5000), fptr(-1), NoTrigger},
		{"missing current volume", nil, fptr(1000), Skipped},
		{"missing previous volume", fptr(5000), nil, Skipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Evaluate(store.Condition{Type: store.VolumeSpike}, snap(nil, nil, tt.vol, tt.prevVol))
			if got != tt.want {
				t.Errorf("Evaluate(volume_spike, vol=%v prev=%v) = %v, want %v", tt.vol, tt.prevVol, got, tt.want)
			}
		})
	}
}

func TestEvaluateMovingAverageCrossNeverFires(t *testing.T) {
	// The snapshot model carries no moving-average data, so this condition is
	// always skipped regardless of how complete the snapshot is.
	full := snap(fptr(100), fptr(50), fptr(1000), fptr(900))
	got, _ := Evaluate(store.Condition{Type: store.MovingAverageCross}, full)
	if got != Skipped {
		t.Errorf("Evaluate(moving_average_cross) = %v, want %v", got, Skipped)
	}
}

func TestEvaluateUnknownConditionSkipped(t *testing.T) {
	got, _ := Evaluate(store.Condition{Type: "bollinger_breakout"}, snap(fptr(100), nil, nil, nil))
	if got != Skipped {
		t.Errorf("Evaluate(unknown) = %v, want %v", got, Skipped)
	}
}

func TestEvaluateMessageContent(t *testing.T) {
	got, msg := Evaluate(store.Condition{Type: store.PriceAbove, Value: fptr(100)}, snap(fptr(105.25), nil, nil, nil))
	if got != Trigger {
		t.Fatalf("outcome = %v, want %v", got, Trigger)
	}
	for _, want := range []string{"AAPL", "105.25", "100.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
