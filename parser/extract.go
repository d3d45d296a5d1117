package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument builds a document tree from a response body.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ExtractTitles returns the trimmed text of every link-matching element inside
// the first container-matching element, in document order. A missing container
// is a normal empty page and yields an empty slice.
func ExtractTitles(doc *goquery.Document, container, link string) []string {
	if doc == nil {
		return []string{}
	}
	box := doc.Find(container).First()
	if box.Length() == 0 {
		return []string{}
	}

	links := box.Find(link)
	titles := make([]string, 0, links.Length())
	links.Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, strings.TrimSpace(s.Text()))
	})
	return titles
}
