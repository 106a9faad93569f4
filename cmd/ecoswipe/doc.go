// Command ecoswipe runs the EcoSwipe popup bridge and drives the same popup
// engine from a terminal.
//
//	ecoswipe serve                      run the bridge for the browser extension
//	ecoswipe judge --url U --title T    judge a page, then browse alternatives
//	ecoswipe cart list|clear            inspect the cart
//	ecoswipe scrape <file|url>          read a product identity from HTML
package main
