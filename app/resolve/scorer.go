package resolve

import (
	"github.com/sobako/babywatch/app/signal"
)

// Evidence is everything the creation score considers about an event.
type Evidence struct {
	SourceKind        string
	BirthAnnouncement bool
	ZooKnown          bool
	DateEvidence      bool // explicit age-in-days, or a parseable date in the title
}

// Score sums the configured confidence weights for the evidence. Officials'
// own sites and press feeds weigh more than video channels; a birth-keyword
// title weighs more than circumstantial zoo or date hints.
func Score(e Evidence) int {
	weights := signal.Weights()

	score := 0
	switch e.SourceKind {
	case "site", "rss", "googlenews":
		score += weights.OfficialSource
	case "youtube":
		score += weights.VideoSource
	}
	if e.BirthAnnouncement {
		score += weights.BirthAnnouncement
	}
	if e.ZooKnown {
		score += weights.ZooKnown
	}
	if e.DateEvidence {
		score += weights.DateEvidence
	}
	return score
}

// ShouldCreate is the accept/reject policy, kept separate from the scoring
// rule so each can be tested on its own.
func ShouldCreate(score int) bool {
	return score >= signal.Weights().Threshold
}
