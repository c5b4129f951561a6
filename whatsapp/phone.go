package whatsapp

import "strings"

// jidSuffix is appended by WhatsApp to individual-chat phone numbers.
const jidSuffix = "@s.whatsapp.net"

// NormalizePhone reduces a phone number or JID to its digits.
// "+1 (555) 123-4567" and "15551234567@s.whatsapp.net" both normalize to
// "15551234567".
func NormalizePhone(raw string) string {
	raw = strings.TrimSuffix(raw, jidSuffix)
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
