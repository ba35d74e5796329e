package starsystem

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatPairs writes the interaction pairs as an index matrix, one pair per
// line with indices padded to a common width:
//
//	[[0 1]
//	 [0 2]
//	 [1 2]]
func FormatPairs(w io.Writer, pairs []Pair) error {
	if len(pairs) == 0 {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}

	width := 1
	for _, p := range pairs {
		width = max(width, len(strconv.Itoa(p.J)), len(strconv.Itoa(p.I)))
	}

	var b strings.Builder
	for k, p := range pairs {
		if k == 0 {
			b.WriteString("[")
		} else {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "[%*d %*d]", width, p.I, width, p.J)
		if k == len(pairs)-1 {
			b.WriteString("]")
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
