// Package scraper reads a product identity out of arbitrary product-page HTML.
//
// Extraction order is JSON-LD Product, then OpenGraph and product:* meta
// tags, then the first <h1>, then <title>. Input bytes are decoded to UTF-8
// using the declared charset or, failing that, chardet sniffing.
//
// Built on:
//   - goquery: CSS selectors for extraction
//   - htmlquery: XPath checks for product markers
//   - bluemonday: strips markup from descriptions
//   - chardet: character encoding detection
package scraper
