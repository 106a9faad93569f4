package scraper

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB
const MaxHTMLSize = 10 * 1024 * 1024

// ValidateHTML checks HTML size
func ValidateHTML(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("html content required")
	}
	if len(data) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// DetectCharset guesses the charset of raw HTML bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// Decode returns a UTF-8 reader over data. A charset from the BOM, the
// Content-Type or a <meta> tag wins; otherwise the bytes are sniffed.
func Decode(data []byte, contentType string) io.Reader {
	_, name, certain := charset.DetermineEncoding(data, contentType)
	if !certain && name == "windows-1252" && !declaresCharset(data) {
		// DetermineEncoding's fallback when nothing is declared
		name = DetectCharset(data)
	}

	r, err := charset.NewReaderLabel(name, bytes.NewReader(data))
	if err != nil {
		return bytes.NewReader(data)
	}
	return r
}

func declaresCharset(data []byte) bool {
	if len(data) > 1024 {
		data = data[:1024]
	}
	return bytes.Contains(bytes.ToLower(data), []byte("charset"))
}

// LoadHTML parses data into a goquery document
func LoadHTML(data []byte, contentType string) (*goquery.Document, error) {
	if err := ValidateHTML(data); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(Decode(data, contentType))
}

// LoadHTMLNode parses data into an XPath-queryable node
func LoadHTMLNode(data []byte, contentType string) (*html.Node, error) {
	if err := ValidateHTML(data); err != nil {
		return nil, err
	}
	return htmlquery.Parse(Decode(data, contentType))
}

// NormalizeWhitespace collapses runs of whitespace into one space
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText truncates s to maxLen runes with an ellipsis
func TruncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
