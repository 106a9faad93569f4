package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
)

// jsonLDProducts returns every schema.org Product object in the document
func jsonLDProducts(doc *goquery.Document) []map[string]any {
	var products []map[string]any

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.Text())
		if content == "" {
			return
		}
		var data any
		if err := sonic.ConfigStd.UnmarshalFromString(content, &data); err != nil {
			return
		}
		collectProducts(data, &products)
	})
	return products
}

func collectProducts(v any, out *[]map[string]any) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			collectProducts(item, out)
		}
	case map[string]any:
		if isType(t["@type"], "Product") {
			*out = append(*out, t)
			return
		}
		if graph, ok := t["@graph"]; ok {
			collectProducts(graph, out)
		}
	}
}

func isType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want) || strings.HasSuffix(t, "/"+want)
	case []any:
		for _, item := range t {
			if isType(item, want) {
				return true
			}
		}
	}
	return false
}

// text reads a string-ish value: a string, a number, or {"name"|"url"|"@id": ...}
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		for _, item := range t {
			if s := text(item); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"name", "url", "@id"} {
			if s := text(t[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

// offer returns price and currency from an offers value (object, list or AggregateOffer)
func offer(v any) (price, currency string) {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if p, c := offer(item); p != "" {
				return p, c
			}
		}
	case map[string]any:
		price = text(t["price"])
		if price == "" {
			price = text(t["lowPrice"])
		}
		currency = text(t["priceCurrency"])
		if price == "" {
			if nested, ok := t["offers"]; ok {
				return offer(nested)
			}
		}
	}
	return price, currency
}
