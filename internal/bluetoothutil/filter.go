package bluetoothutil

import "strings"

// MatchesNamePrefix reports whether name starts with any of prefixes. Unnamed
// devices never match a non-empty prefix list; an empty list matches any
// named device.
func MatchesNamePrefix(name string, prefixes []string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// NormalizeAddress upper-cases and trims a MAC address or platform device ID.
func NormalizeAddress(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}
