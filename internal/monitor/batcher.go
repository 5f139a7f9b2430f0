package monitor

import (
	"strings"

	"github.com/signalist/alert-monitor/internal/store"
)

// GroupBySymbol partitions alerts by canonical upper-cased symbol, so the
// snapshot provider is called once per distinct symbol per cycle no matter
// how many alerts watch it. Every input alert lands in exactly one group.
func GroupBySymbol(alerts []store.Alert) map[string][]store.Alert {
	groups := make(map[string][]store.Alert)
	for _, a := range alerts {
		sym := strings.ToUpper(strings.TrimSpace(a.Symbol))
		groups[sym] = append(groups[sym], a)
	}
	return groups
}
