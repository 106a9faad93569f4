package session

import (
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
)

// Render tells the presentation layer what to show. It is a value; the
// machine never touches the UI itself.
type Render struct {
	Phase      Phase  `json:"phase"`
	Status     string `json:"status,omitempty"`
	Error      bool   `json:"error,omitempty"`
	ScoreText  string `json:"score_text,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Notice     string `json:"notice,omitempty"`
	ShowAction bool   `json:"show_action"`
	ShowSwipe  bool   `json:"show_swipe"`
	Card       *Card  `json:"card,omitempty"`
	Index      int    `json:"index"`
	Count      int    `json:"count"`
	OpenURL    string `json:"open_url,omitempty"`
	CartSize   int    `json:"cart_size"`
}

// Card is the alternative under the cursor
type Card struct {
	Name      string           `json:"name"`
	URL       string           `json:"url"`
	Price     string           `json:"price,omitempty"`
	ScoreText string           `json:"score_text"`
	Preview   *scoring.Preview `json:"preview,omitempty"`
}

// Interactive reports whether any control is visible
func (r Render) Interactive() bool {
	return r.ShowAction || r.ShowSwipe
}
