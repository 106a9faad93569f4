package scraper

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/http/client"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// ErrNoProduct means no product name could be found in the page
var ErrNoProduct = errors.New("no product found in page")

// Source records where the product name was read from
type Source string

const (
	SourceJSONLD    Source = "jsonld"
	SourceOpenGraph Source = "opengraph"
	SourceHeading   Source = "heading"
	SourceTitle     Source = "title"
)

const maxDescription = 500

// ProductPage is what could be read from a product page
type ProductPage struct {
	Name        string `json:"name"`
	Price       string `json:"price,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SKU         string `json:"sku,omitempty"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
}

// Identity returns the page as a product the scoring backend can judge
func (p ProductPage) Identity() types.Product {
	return types.Product{Name: p.Name, Link: p.URL}
}

var productPathIndicators = []*regexp.Regexp{
	regexp.MustCompile(`/products?/`),
	regexp.MustCompile(`/items?/`),
	regexp.MustCompile(`/p/`),
	regexp.MustCompile(`/dp/`),
	regexp.MustCompile(`/gp/product/`),
	regexp.MustCompile(`/shop/`),
	regexp.MustCompile(`/buy/`),
	regexp.MustCompile(`/pdp/`),
	regexp.MustCompile(`/detail/`),
}

var productMarkers = []string{
	`//meta[@property="og:type" and contains(translate(@content, "PRODUCT", "product"), "product")]`,
	`//meta[@property="product:price:amount"]`,
	`//*[@itemtype and contains(@itemtype, "schema.org/Product")]`,
	`//*[contains(@id, "add-to-cart") or contains(@class, "add-to-cart")]`,
	`//button[contains(translate(., "ADTOCR", "adtocr"), "add to cart")]`,
}

var sanitizer = bluemonday.StrictPolicy()

// Scrape reads a product from raw HTML. pageURL resolves relative image
// links and becomes the product link.
func Scrape(data []byte, pageURL string) (*ProductPage, error) {
	return ScrapeWithType(data, pageURL, "")
}

// ScrapeWithType is Scrape with a Content-Type hint for charset decoding
func ScrapeWithType(data []byte, pageURL, contentType string) (*ProductPage, error) {
	doc, err := LoadHTML(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &ProductPage{URL: pageURL}
	if canonical := canonicalURL(doc); page.URL == "" {
		page.URL = canonical
	}

	if products := jsonLDProducts(doc); len(products) > 0 {
		fromJSONLD(page, products[0])
	}
	fromMeta(page, doc)

	if page.Name == "" {
		if h1 := NormalizeWhitespace(doc.Find("h1").First().Text()); h1 != "" {
			page.Name, page.Source = h1, SourceHeading
		}
	}
	if page.Name == "" {
		if title := NormalizeWhitespace(doc.Find("title").First().Text()); title != "" {
			page.Name, page.Source = title, SourceTitle
		}
	}
	if page.Name == "" {
		return nil, ErrNoProduct
	}

	page.Description = cleanDescription(page.Description)
	page.Image = resolve(pageURL, page.Image)
	return page, nil
}

func fromJSONLD(page *ProductPage, p map[string]any) {
	page.Name = NormalizeWhitespace(text(p["name"]))
	if page.Name != "" {
		page.Source = SourceJSONLD
	}
	page.Brand = text(p["brand"])
	page.Description = text(p["description"])
	page.Image = text(p["image"])
	page.SKU = text(p["sku"])
	page.Price, page.Currency = offer(p["offers"])
}

func fromMeta(page *ProductPage, doc *goquery.Document) {
	meta := func(keys ...string) string {
		for _, key := range keys {
			sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)
			if v, ok := doc.Find(sel).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
		return ""
	}

	if page.Name == "" {
		if v := meta("og:title", "twitter:title"); v != "" {
			page.Name, page.Source = NormalizeWhitespace(v), SourceOpenGraph
		}
	}
	fill := func(dst *string, keys ...string) {
		if *dst == "" {
			*dst = meta(keys...)
		}
	}
	fill(&page.Price, "product:price:amount", "og:price:amount")
	fill(&page.Currency, "product:price:currency", "og:price:currency")
	fill(&page.Brand, "product:brand", "og:brand")
	fill(&page.Image, "og:image", "twitter:image")
	fill(&page.Description, "og:description", "description")
}

func canonicalURL(doc *goquery.Document) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}
	if v, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func cleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = NormalizeWhitespace(html.UnescapeString(sanitizer.Sanitize(s)))
	return TruncateText(s, maxDescription)
}

func resolve(base, ref string) string {
	if ref == "" || base == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// IsProductURL reports whether the URL path looks like a product page
func IsProductURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, re := range productPathIndicators {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// IsProductPage reports whether the URL or the markup marks a product page
func IsProductPage(data []byte, pageURL string) bool {
	if IsProductURL(pageURL) {
		return true
	}
	node, err := LoadHTMLNode(data, "")
	if err != nil {
		return false
	}
	return hasProductMarkers(node)
}

func hasProductMarkers(node *xhtml.Node) bool {
	for _, expr := range productMarkers {
		found, err := htmlquery.Query(node, expr)
		if err == nil && found != nil {
			return true
		}
	}
	for _, script := range htmlquery.Find(node, `//script[@type="application/ld+json"]`) {
		if strings.Contains(htmlquery.InnerText(script), `"Product"`) {
			return true
		}
	}
	return false
}

// Scraper fetches and scrapes remote product pages
type Scraper struct {
	http *client.Client
}

// New creates a scraper using c for fetching
func New(c *client.Client) *Scraper {
	return &Scraper{http: c}
}

// Fetch downloads pageURL and scrapes it
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*ProductPage, error) {
	req, err := s.http.Request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.
		SetHeader("Accept", "text/html,application/xhtml+xml").
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch failed: status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > MaxHTMLSize {
		return nil, fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return ScrapeWithType(body, pageURL, resp.Header().Get("Content-Type"))
}
