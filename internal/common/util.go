package common

import "strings"

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Used for passwords read from the terminal once they have been consumed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// SplitList splits a comma-separated list, trimming blanks and dropping
// empty items. "bob, carol,," -> ["bob" "carol"].
func SplitList(s string) []string {
	out := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
