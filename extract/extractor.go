package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/civiceg/voterlookup/arabic"
	"github.com/civiceg/voterlookup/models"
)

// Label-anchored textual patterns: everything after the label and its
// delimiter, up to the next line break.
var (
	reCenter       = regexp.MustCompile(LabelElectoralCenter + `[:\s]+([^\n]+)`)
	reDistrict     = regexp.MustCompile(LabelDistrict + `[:\s]+([^\n]+)`)
	reAddress      = regexp.MustCompile(LabelAddress + `\s*[:\s]+([^\n]+)`)
	reSubcommittee = regexp.MustCompile(LabelSubcommittee + `\s*[:\s]+([^\n]+)`)
	reListNumber   = regexp.MustCompile(LabelElectoralListNumber + `\s*[:\s]+([^\n]+)`)

	reDigitRun = regexp.MustCompile(`[0-9]+`)
)

// Fields extracts the five record fields from a registration result page.
//
// Each field tries a structural strategy first (locate the labelled node in
// the parsed document, read its enclosing container) and falls back to a
// label-anchored pattern over the full page text. Fields are independent:
// one failing never aborts the others, and any unexpected failure degrades
// to an empty field.
func Fields(pageHTML, pageText string) models.Record {
	var doc *goquery.Document
	if pageHTML != "" {
		if d, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML)); err == nil {
			doc = d
		}
	}

	return models.Record{
		ElectoralCenter:     field(doc, pageText, LabelElectoralCenter, reCenter, false),
		District:            field(doc, pageText, LabelDistrict+":", reDistrict, false),
		Address:             field(doc, pageText, LabelAddress, reAddress, false),
		SubcommitteeNumber:  field(doc, pageText, LabelSubcommittee, reSubcommittee, true),
		ElectoralListNumber: field(doc, pageText, LabelElectoralListNumber, reListNumber, true),
	}
}

// field runs the structural strategy, then the textual fallback. Numeric
// fields are digit-normalised and reduced to their first ASCII digit run.
func field(doc *goquery.Document, fullText, label string, fallback *regexp.Regexp, numeric bool) string {
	v := structural(doc, label)
	if v == "" {
		v = textual(fullText, fallback)
	}
	if numeric {
		v = digitRun(v)
	}
	return v
}

// structural locates the first node (in document order) whose own text
// contains the label and reads the value out of its enclosing container.
func structural(doc *goquery.Document, label string) (value string) {
	if doc == nil {
		return ""
	}
	// Extraction must never propagate a failure; a malformed document
	// yields an empty field and the textual fallback takes over.
	defer func() {
		if recover() != nil {
			value = ""
		}
	}()

	var container *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(ownText(s), label) {
			return true
		}
		container = s.Parent()
		if container.Length() == 0 {
			container = s
		}
		return false
	})
	if container == nil {
		return ""
	}

	return valueAfterLabel(container.Text(), label)
}

// ownText returns the text held directly by the node, excluding descendants.
// Mirrors an XPath contains(text(), ...) match rather than a subtree match.
func ownText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for c := s.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// valueAfterLabel splits container text on the label, strips the delimiter,
// and keeps the first line of the remainder. Label-only and whitespace-only
// captures count as not found.
func valueAfterLabel(text, label string) string {
	idx := strings.Index(text, label)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(text[idx+len(label):], " \t:")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// textual runs the label-anchored pattern against the full page text.
func textual(fullText string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(fullText)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// digitRun normalises Arabic-Indic glyphs and returns the first maximal run
// of ASCII digits, or empty when the capture holds no number.
func digitRun(v string) string {
	if v == "" {
		return ""
	}
	return reDigitRun.FindString(arabic.NormalizeDigits(v))
}
