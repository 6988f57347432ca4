package util

// MaskSecret hides sensitive parts of a credential for safe display in logs.
// The first visiblePrefix characters are kept; the rest is replaced with
// "***". Strings not longer than visiblePrefix are fully masked.
func MaskSecret(s string, visiblePrefix int) string {
	if visiblePrefix < 0 {
		visiblePrefix = 0
	}
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
