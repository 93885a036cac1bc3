// Package sanitize cleans user supplied names and message text before they
// reach the stores. Markup is dropped, control characters removed, the text
// NFC-normalized and trimmed.
package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Text returns s with markup tags removed, control characters (other than
// tab and newline) stripped, Unicode normalized to NFC and surrounding
// whitespace trimmed. Entities are left encoded, so Text(Text(s)) == Text(s).
func Text(s string) string {
	// Removing a tag can join its neighbours into a new one ("<<b>b>"), so
	// clean until nothing changes. Passes after the first only remove text.
	for {
		next := clean(s)
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

func clean(s string) string {
	return norm.NFC.String(stripMarkup(norm.NFC.String(stripControl(s))))
}

// Name cleans a participant name. Inner whitespace runs collapse to a single
// space.
func Name(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	consumed, skip := 0, 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// A '<' the tokenizer never closed is ordinary text.
			if skip == 0 && consumed < len(s) {
				b.WriteString(s[consumed:])
			}
			return b.String()
		}
		raw := z.Raw()
		consumed += len(raw)

		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.Write(raw)
			}
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, s)
}
