// Package parse recovers structure from generated text. Every function is total:
// unmatched input yields a documented default, never an error.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	htmlTagRe    = regexp.MustCompile(`(?i)</?(p|br|b|strong|em|i|ul|ol|li|h[1-6]|div|span|table|tr|td|th)\b[^>]*>`)
)

// CleanResponse normalises raw model output before extraction: reasoning blocks,
// code fences, HTML markup and CRLF line endings are removed.
func CleanResponse(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = thinkBlockRe.ReplaceAllString(s, "")

	if htmlTagRe.MatchString(s) {
		s = stripHTML(s)
	}

	// Strip fence lines but keep what they wrap (e.g. ```json ... ```)
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// stripHTML flattens HTML to text, keeping list numbering and block breaks so the
// line based extractors still see one item per line.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return htmlTagRe.ReplaceAllString(s, "")
	}

	doc.Find("ol").Each(func(_ int, ol *goquery.Selection) {
		ol.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
			li.PrependHtml(fmt.Sprintf("%d. ", i+1))
		})
	})
	doc.Find("ul > li").Each(func(_ int, li *goquery.Selection) {
		li.PrependHtml("- ")
	})
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	return doc.Text()
}

// PlainText removes inline markdown (bold, italics, code spans, links) from a
// single line. Text without markdown characters is returned unchanged.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "*_`[") {
		return strings.TrimSpace(s)
	}

	src := []byte(s)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	out := strings.TrimSpace(b.String())
	if out == "" {
		return strings.TrimSpace(s)
	}
	return out
}
