package utils

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical builds the deterministic signing string for a set of named
// fields: keys sorted ascending, joined as key=value pairs with "&".
// Identical logical input always yields a byte-identical string, whatever
// order the fields were assembled in. Both link signatures and webhook
// signing strings are derived through this form, so any change here is a
// wire-format change.
func Canonical(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, "&")
}

// LinkSigningString builds the canonical form for a payment link
// signature. The recipient is lowercased and the token uppercased so that
// case-only differences never produce distinct signatures; absent optional
// fields contribute an empty value.
func LinkSigningString(to, amount, token string, expiry int64, memo string) string {
	return Canonical(map[string]string{
		"to":     strings.ToLower(to),
		"amount": amount,
		"token":  strings.ToUpper(token),
		"expiry": fmt.Sprintf("%d", expiry),
		"memo":   memo,
	})
}

// WebhookSigningString builds the "<timestamp>.<payload>" form covered by
// the webhook HMAC.
func WebhookSigningString(timestamp int64, payload string) string {
	return fmt.Sprintf("%d.%s", timestamp, payload)
}
