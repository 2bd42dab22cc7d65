package signal

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/signals.yml
var rawTables []byte

type SpeciesEntry struct {
	Alias     string `yaml:"alias"`
	Canonical string `yaml:"canonical"`
}

// ScoreWeights holds the creation-confidence weights. They are configuration,
// not business logic: the resolver only ever compares the summed score against
// Threshold.
type ScoreWeights struct {
	OfficialSource    int `yaml:"official_source"`
	VideoSource       int `yaml:"video_source"`
	BirthAnnouncement int `yaml:"birth_announcement"`
	ZooKnown          int `yaml:"zoo_known"`
	DateEvidence      int `yaml:"date_evidence"`
	Threshold         int `yaml:"threshold"`
}

type tables struct {
	BirthKeywords []string       `yaml:"birth_keywords"`
	Species       []SpeciesEntry `yaml:"species"`
	Score         ScoreWeights   `yaml:"score"`
}

var loadedTables = mustLoadTables(rawTables)

func mustLoadTables(data []byte) tables {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		panic(fmt.Sprintf("invalid embedded signal tables: %v", err))
	}
	if len(t.BirthKeywords) == 0 || len(t.Species) == 0 {
		panic("embedded signal tables are incomplete")
	}
	return t
}

// Weights returns the creation-confidence weights and threshold.
func Weights() ScoreWeights {
	return loadedTables.Score
}

// IsBirthAnnouncement reports whether a title matches the birth keyword set.
func IsBirthAnnouncement(title string) bool {
	for _, keyword := range loadedTables.BirthKeywords {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

// SpeciesMatch is the result of an alias lookup.
type SpeciesMatch struct {
	Canonical    string
	MatchedAlias string
}

// ExtractSpecies returns the first alias from the ordered species table found
// in the title, mapped to its canonical form. Order matters: more specific
// aliases precede the generic substrings they contain.
func ExtractSpecies(title string) *SpeciesMatch {
	for _, entry := range loadedTables.Species {
		if strings.Contains(title, entry.Alias) {
			return &SpeciesMatch{Canonical: entry.Canonical, MatchedAlias: entry.Alias}
		}
	}
	return nil
}
