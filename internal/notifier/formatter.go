package notifier

import "strings"

// BuildConsolidated renders the body of one consolidated notification: a
// greeting, one bullet per fired alert, and the standard sign-off.
func BuildConsolidated(messages []string) string {
	var b strings.Builder
	b.WriteString("The following alerts on your watchlist have triggered:\n\n")
	for _, m := range messages {
		b.WriteString("  • ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	b.WriteString("\nManage your alerts from the Signalist dashboard.\n")
	return b.String()
}
