package types

import (
	"strings"
	"time"
)

// Stage tracks how far a page session has progressed
type Stage string

const (
	StageNone         Stage = "NONE"
	StageAlternatives Stage = "ALTERNATIVES"
)

// SessionState is the persisted browsing state for one page URL. Score is
// the last verdict for the product itself.
type SessionState struct {
	Stage        Stage         `json:"stage"`
	Product      Product       `json:"product"`
	Score        Score         `json:"score"`
	Alternatives []Alternative `json:"alternatives"`
	AltScores    []Score       `json:"alt_scores"`
	CurrentIndex int           `json:"current_index"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewSessionState starts an empty session for a product
func NewSessionState(product Product) *SessionState {
	return &SessionState{
		Stage:        StageNone,
		Product:      product,
		Alternatives: []Alternative{},
		AltScores:    []Score{},
	}
}

// SetAlternatives replaces the alternative list, resets every cached score to
// unknown and moves to the first card.
func (s *SessionState) SetAlternatives(alts []Alternative) {
	s.Alternatives = append([]Alternative(nil), alts...)
	s.AltScores = make([]Score, len(alts))
	s.CurrentIndex = 0
	s.Stage = StageAlternatives
}

// Browsable reports whether the alternative-browsing stage is active with content
func (s *SessionState) Browsable() bool {
	return s.Stage == StageAlternatives && len(s.Alternatives) > 0
}

// Normalize repairs the state read back from storage so that the score list
// matches the alternative list and the index is in range.
func (s *SessionState) Normalize() {
	if s.Alternatives == nil {
		s.Alternatives = []Alternative{}
	}

	switch n := len(s.Alternatives); {
	case len(s.AltScores) > n:
		s.AltScores = s.AltScores[:n]
	case len(s.AltScores) < n:
		s.AltScores = append(s.AltScores, make([]Score, n-len(s.AltScores))...)
	}

	s.CurrentIndex = Clamp(s.CurrentIndex, len(s.Alternatives))
}

// Current returns the alternative under the cursor and its cached score
func (s *SessionState) Current() (Alternative, Score, bool) {
	if len(s.Alternatives) == 0 {
		return Alternative{}, Unknown, false
	}
	i := Clamp(s.CurrentIndex, len(s.Alternatives))
	return s.Alternatives[i], s.AltScores[i], true
}

// Step moves the cursor by delta with wrap-around and returns the new index
func (s *SessionState) Step(delta int) int {
	n := len(s.Alternatives)
	if n == 0 {
		s.CurrentIndex = 0
		return 0
	}
	s.CurrentIndex = ((s.CurrentIndex+delta)%n + n) % n
	return s.CurrentIndex
}

// SetScore caches the score for alternative i; out of range indexes are ignored
func (s *SessionState) SetScore(i int, score Score) {
	if i < 0 || i >= len(s.AltScores) {
		return
	}
	s.AltScores[i] = score
}

// Clone returns a deep copy safe to hand to storage
func (s *SessionState) Clone() SessionState {
	c := *s
	c.Alternatives = append([]Alternative{}, s.Alternatives...)
	c.AltScores = append([]Score{}, s.AltScores...)
	return c
}

// Clamp bounds i to [0, n-1], returning 0 when n is 0
func Clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// CartItem is an alternative the user chose to keep
type CartItem struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Image   string    `json:"image,omitempty"`
	Score   Score     `json:"score"`
	AddedAt time.Time `json:"added_at"`
}

// Key is the deduplication key: url plus case-folded name
func (c CartItem) Key() string {
	return c.URL + "\x00" + strings.ToLower(c.Name)
}

// CartItemFrom builds a cart entry from an alternative and its cached score
func CartItemFrom(alt Alternative, score Score) CartItem {
	return CartItem{
		Name:  alt.Name,
		URL:   alt.URL,
		Image: alt.Image,
		Score: score,
	}
}
