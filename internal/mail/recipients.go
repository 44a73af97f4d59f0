package mail

import "strings"

// NormalizeRecipients splits a comma-separated recipient string, trims each
// address and drops empty entries.
func NormalizeRecipients(receivers string) []string {
	parts := strings.Split(receivers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
