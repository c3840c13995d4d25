package crawler

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// ExtractTitle returns the text of the first <title> element in content,
// with whitespace collapsed. It returns an empty string when there is no
// title or the content cannot be tokenized.
//
// The tokenizer stops at the first title, so large pages are not fully
// parsed just to label them in reports.
func ExtractTitle(content []byte) string {
	z := html.NewTokenizer(bytes.NewReader(content))
	inTitle := false
	var title strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return normalizeSpace(title.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return normalizeSpace(title.String())
			}
		}
	}
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
