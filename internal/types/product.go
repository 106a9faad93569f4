package types

import (
	"net/url"
	"strings"
)

// Product identifies the page being judged
type Product struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// IsZero reports whether neither name nor link is set
func (p Product) IsZero() bool {
	return strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Link) == ""
}

// Alternative is a greener candidate product
type Alternative struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Image string `json:"image,omitempty"`
	Price string `json:"price,omitempty"`
}

// Identity returns the alternative as a product that can be judged on its own
func (a Alternative) Identity() Product {
	return Product{Name: a.Name, Link: a.URL}
}

// NameFromURL derives a display name from a URL host ("www.eco-shop.com" -> "Eco Shop")
func NameFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if i := strings.LastIndex(host, "."); i > 0 {
		host = host[:i]
	}

	words := strings.FieldsFunc(host, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
