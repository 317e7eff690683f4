package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var multipleSpacesPattern = regexp.MustCompile(`\s{2,}`)

// blockAtoms break the text into separate lines when stripped.
var blockAtoms = map[atom.Atom]bool{
	atom.P:   true,
	atom.Div: true,
	atom.Br:  true,
	atom.Li:  true,
	atom.H1:  true,
	atom.H2:  true,
	atom.H3:  true,
	atom.H4:  true,
	atom.H5:  true,
	atom.H6:  true,
	atom.Tr:  true,
}

// StripTags reduces an HTML fragment, such as an imported book summary, to
// plain text. Block-level elements become line breaks, entities are decoded,
// and script/style bodies are dropped.
func StripTags(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		tt := z.Next()
		// io.EOF or malformed input; keep whatever was collected.
		if tt == html.ErrorToken {
			break
		}

		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if blockAtoms[tok.DataAtom] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
				if skip > 0 {
					skip--
				}
				continue
			}
			if blockAtoms[tok.DataAtom] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				b.WriteString(tok.Data)
			}
		}
	}

	lines := strings.Split(b.String(), "\n")
	nonEmpty := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multipleSpacesPattern.ReplaceAllString(line, " "))
		if line != "" {
			nonEmpty = append(nonEmpty, line)
		}
	}

	return strings.Join(nonEmpty, "\n")
}
