package crawler

import (
	"iter"
	"regexp"
)

// hrefPattern matches double-quoted href attributes.
// Single-quoted and unquoted attributes are not recognized, and entities in
// the value are not decoded.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*"([^"]+)"`)

// ExtractLinks returns the href values found in content, in document order.
// Values are yielded verbatim, duplicates included. The sequence is lazy and
// can be ranged over more than once. Malformed markup never causes an
// error; it simply yields fewer links.
func ExtractLinks(content string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := content
		for {
			loc := hrefPattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[2]:loc[3]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}
