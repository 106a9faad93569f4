package session

// Phase is the state machine position for one popup
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseJudging             Phase = "judging"
	PhaseAcceptable          Phase = "acceptable"
	PhaseNeedsAlternatives   Phase = "needs_alternatives"
	PhaseAlternativesLoading Phase = "alternatives_loading"
	PhaseAlternativesShown   Phase = "alternatives_shown"
	PhaseIndexChanged        Phase = "index_changed"
	PhaseNoAlternatives      Phase = "no_alternatives"
	PhaseFailed              Phase = "failed"
	PhaseClosed              Phase = "closed"
)

// Browsing reports whether swipe and cart events apply
func (p Phase) Browsing() bool {
	return p == PhaseAlternativesShown || p == PhaseIndexChanged
}

// Terminal reports whether no further user event can change the phase
func (p Phase) Terminal() bool {
	switch p {
	case PhaseAcceptable, PhaseNoAlternatives, PhaseFailed, PhaseClosed:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}
