package converter

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// nonContentSelector matches nodes that carry no publishable content and
// would otherwise leak into the Markdown output.
const nonContentSelector = "script, style, noscript, template, iframe"

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Converter turns rendered HTML bodies into Markdown. It is stateless and
// deterministic for identical input.
type Converter struct{}

func New() *Converter {
	return &Converter{}
}

// Convert produces Markdown from a raw rendered HTML body. Headings,
// emphasis, lists, links, blockquotes, and code blocks are preserved;
// presentation-only markup is dropped and surrounding whitespace is
// normalized. Malformed markup is tolerated by the parser; unrecognized tags
// pass through as inline text.
func (c *Converter) Convert(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find(nonContentSelector).Remove()

	// goquery parses fragments into a full document; convert from the body
	// node so the synthetic html/head wrappers stay out of the output.
	body := doc.Find("body")
	var markdown []byte
	if len(body.Nodes) > 0 {
		markdown, err = htmltomarkdown.ConvertNode(body.Nodes[0])
	} else {
		var s string
		s, err = htmltomarkdown.ConvertString(rawHTML)
		markdown = []byte(s)
	}
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}

	out := strings.TrimSpace(string(markdown))
	out = excessNewlines.ReplaceAllString(out, "\n\n")
	return out, nil
}

// PlainText extracts the readable text content of an HTML body.
func (c *Converter) PlainText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	article, err := readability.FromDocument(doc, nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

// WordCount measures the readable text of an HTML body in runes.
func (c *Converter) WordCount(rawHTML string) int {
	return len([]rune(c.PlainText(rawHTML)))
}
