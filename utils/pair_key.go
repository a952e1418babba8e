package utils

import "strings"

const (
	// PairKeySeparator joins the two ids of a canonical pair key.
	PairKeySeparator = ":"
	// SwipeKeySeparator joins swiper and swiped in a swipe document id.
	SwipeKeySeparator = "#"
)

// ValidUserID reports whether id can be embedded in pair and swipe keys: it must be
// non-empty and free of either separator, otherwise two different pairs could
// share a key.
func ValidUserID(id string) bool {
	return id != "" && !strings.ContainsAny(id, PairKeySeparator+SwipeKeySeparator)
}

// CanonicalPair orders two user ids so that {a,b} and {b,a} produce the same result.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey returns min(a,b)+":"+max(a,b).
func PairKey(a, b string) string {
	lo, hi := CanonicalPair(a, b)
	return lo + PairKeySeparator + hi
}

// SplitPairKey is the inverse of PairKey. ok is false for malformed keys.
func SplitPairKey(key string) (a, b string, ok bool) {
	a, b, ok = strings.Cut(key, PairKeySeparator)
	if !ok || !ValidUserID(a) || !ValidUserID(b) {
		return "", "", false
	}
	return a, b, true
}
