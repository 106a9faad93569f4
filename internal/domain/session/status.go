package session

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/ecoswipe/internal/domain/site"
	"github.com/GriffinCanCode/ecoswipe/internal/providers/scoring"
	"github.com/GriffinCanCode/ecoswipe/internal/types"
)

// User-visible status strings
const (
	StatusUnreachable   = "backend not reachable"
	StatusInvalidJSON   = "Error (invalid JSON)"
	StatusUnsupported   = "Website is not Supported"
	StatusNoURL         = "Error (no URL)"
	StatusGeneric       = "Error"
	StatusAnalyzing     = "Analyzing..."
	StatusFinding       = "Finding alternatives..."
	NoticeThankYou      = "Thank you for choosing a sustainable product!"
	NoticeNoAlternative = "No greener alternatives found"
	NoticeAdded         = "Added to cart"
	NoticeDuplicate     = "Already in cart"
	NoticeCleared       = "Cart cleared"

	NoticeCartUnavailable = "Cart unavailable, item not saved"
)

// StatusText maps a failure to its status line
func StatusText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, scoring.ErrBackendUnreachable) {
		return StatusUnreachable
	}
	if code, ok := scoring.StatusCode(err); ok {
		return fmt.Sprintf("Error (status %d)", code)
	}
	switch {
	case errors.Is(err, scoring.ErrMalformedResponse):
		return StatusInvalidJSON
	case errors.Is(err, site.ErrUnsupported):
		return StatusUnsupported
	case errors.Is(err, site.ErrNoURL):
		return StatusNoURL
	default:
		return StatusGeneric
	}
}

// PrimaryLabel formats the judged product's score
func PrimaryLabel(score types.Score) string {
	return "EcoScore: " + score.String()
}

// AlternativeLabel formats an alternative's score
func AlternativeLabel(score types.Score) string {
	return "New EcoScore: " + score.String()
}
