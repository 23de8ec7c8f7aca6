package domain

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var postcodeCaser = cases.Upper(language.BritishEnglish)

// NormalizePostcode folds compatibility characters (full-width digits,
// non-breaking spaces), collapses internal whitespace and upper-cases the
// result: " so17 1bj " -> "SO17 1BJ".
func NormalizePostcode(s string) string {
	folded, _, err := transform.String(norm.NFKC, s)
	if err != nil {
		folded = s
	}
	return postcodeCaser.String(strings.Join(strings.Fields(folded), " "))
}

// RenderAddressHTML renders the popup description of an organisation:
//
//	<p><strong>NAME</strong><br/> LINE 1<br/>TOWN<br/>POSTCODE</p>
//
// Field values are escaped.
func RenderAddressHTML(rec AddressRecord) string {
	p := element(atom.P)
	strong := element(atom.Strong)
	strong.AppendChild(text(rec.OrganisationName))
	p.AppendChild(strong)
	p.AppendChild(element(atom.Br))
	p.AppendChild(text(" " + rec.AddressLine1))
	p.AppendChild(element(atom.Br))
	p.AppendChild(text(rec.Town))
	p.AppendChild(element(atom.Br))
	p.AppendChild(text(rec.Postcode))

	var sb strings.Builder
	if err := html.Render(&sb, p); err != nil {
		// Rendering into a strings.Builder only fails on malformed trees.
		return html.EscapeString(rec.OrganisationName)
	}
	return sb.String()
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
