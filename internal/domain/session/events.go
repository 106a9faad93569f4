package session

import (
	"fmt"
	"strings"
)

// EventType names a user event from the presentation layer
type EventType string

const (
	EventOpenAlternatives EventType = "open_alternatives"
	EventSwipeNext        EventType = "swipe_next"
	EventSwipePrev        EventType = "swipe_prev"
	EventAddToCart        EventType = "add_to_cart"
	EventClearCart        EventType = "clear_cart"
	EventOpenLink         EventType = "open_link"
)

// Event is dispatched into a Machine
type Event struct {
	Type EventType `json:"type"`
}

// PageInfo is the active page as reported by the host browser
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

var eventAliases = map[string]EventType{
	"open_alternatives": EventOpenAlternatives,
	"openalternatives":  EventOpenAlternatives,
	"find_alternatives": EventOpenAlternatives,
	"swipe_next":        EventSwipeNext,
	"swipenext":         EventSwipeNext,
	"next":              EventSwipeNext,
	"swipe_prev":        EventSwipePrev,
	"swipeprev":         EventSwipePrev,
	"prev":              EventSwipePrev,
	"add_to_cart":       EventAddToCart,
	"addtocart":         EventAddToCart,
	"clear_cart":        EventClearCart,
	"clearcart":         EventClearCart,
	"open_link":         EventOpenLink,
	"openlink":          EventOpenLink,
}

// ParseEventType accepts snake_case and CamelCase spellings
func ParseEventType(s string) (EventType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if t, ok := eventAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}
