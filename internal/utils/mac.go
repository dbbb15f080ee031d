package utils

import (
	"errors"
	"strings"
)

// ErrInvalidMAC is returned when an input cannot be normalized into a
// canonical MAC address.
var ErrInvalidMAC = errors.New("invalid MAC format")

// NormalizeMAC canonicalizes a client-submitted MAC address: hex digits are
// extracted (any separators or casing accepted), upper-cased, and re-grouped
// as XX:XX:XX:XX:XX:XX. Anything that does not contain exactly 12 hex digits
// is rejected with ErrInvalidMAC before any database lookup, which is what
// keeps the uniqueness invariant on devices.mac independent of client
// formatting ("aa-bb-cc-dd-ee-ff", "aabbccddeeff" and "AA:BB:CC:DD:EE:FF"
// all resolve to the same row).
func NormalizeMAC(mac string) (string, error) {
	var hex strings.Builder
	for _, r := range strings.ToUpper(mac) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			hex.WriteRune(r)
		}
	}
	digits := hex.String()
	if len(digits) != 12 {
		return "", ErrInvalidMAC
	}
	parts := make([]string, 6)
	for i := 0; i < 6; i++ {
		parts[i] = digits[i*2 : i*2+2]
	}
	return strings.Join(parts, ":"), nil
}
