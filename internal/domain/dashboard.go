package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section names a unit of dashboard content that can be refreshed on its own
type Section string

// Section constants
const (
	SectionPrices    Section = "prices"
	SectionNews      Section = "news"
	SectionAIInsight Section = "ai_insight"
	SectionMeme      Section = "meme"
	SectionChart     Section = "chart"
	SectionFun       Section = "fun"
)

// AllSections lists every known section in display order
var AllSections = []Section{
	SectionPrices,
	SectionNews,
	SectionAIInsight,
	SectionMeme,
	SectionChart,
	SectionFun,
}

// Valid reports whether s is one of the known sections
func (s Section) Valid() bool {
	for _, known := range AllSections {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSection converts user input into a known section
func ParseSection(raw string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, raw)
	}
	return s, nil
}

// ParseSections parses a comma separated list, skipping blanks
func ParseSections(csv string) ([]Section, error) {
	var out []Section
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseSection(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Dashboard is the dashboard object returned by GET /dashboard and by every refresh.
// Section payloads are kept opaque; typed views live in sections.go.
type Dashboard struct {
	DashboardID string                      `json:"dashboard_id"`
	Preferences json.RawMessage             `json:"preferences,omitempty"`
	Sections    map[Section]json.RawMessage `json:"sections"`
}

// Clone returns a copy whose sections map can be mutated independently
func (d *Dashboard) Clone() *Dashboard {
	if d == nil {
		return nil
	}
	out := &Dashboard{
		DashboardID: d.DashboardID,
		Preferences: d.Preferences,
		Sections:    make(map[Section]json.RawMessage, len(d.Sections)),
	}
	for k, v := range d.Sections {
		out.Sections[k] = v
	}
	return out
}

// VoteValue is a reaction: -1, 0 (no vote) or +1
type VoteValue int

// VoteValue constants
const (
	VoteDown VoteValue = -1
	VoteNone VoteValue = 0
	VoteUp   VoteValue = 1
)

// Valid reports whether v is in {-1, 0, +1}
func (v VoteValue) Valid() bool {
	return v >= VoteDown && v <= VoteUp
}

// ParseVoteValue accepts up/down/like/dislike/+1/-1
func ParseVoteValue(raw string) (VoteValue, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "like", "+1", "1":
		return VoteUp, nil
	case "down", "dislike", "-1":
		return VoteDown, nil
	}
	return VoteNone, fmt.Errorf("%w: %q", ErrInvalidVote, raw)
}

// VoteKey identifies one votable item
type VoteKey struct {
	Section string
	Item    string
}

// String renders the key as "section::item"
func (k VoteKey) String() string {
	return k.Section + "::" + k.Item
}

// VoteRecord is one entry of GET /votes
type VoteRecord struct {
	Section string    `json:"section"`
	Item    string    `json:"item"`
	Value   VoteValue `json:"value"`
}

// Key returns the composite key of the record
func (r VoteRecord) Key() VoteKey {
	return VoteKey{Section: r.Section, Item: r.Item}
}

// VoteRequest is the POST /votes body
type VoteRequest struct {
	DashboardID string    `json:"dashboard_id,omitempty"`
	Section     string    `json:"section"`
	Item        string    `json:"item"`
	Value       VoteValue `json:"value"`
}

// MessageResponse is the generic {message} body
type MessageResponse struct {
	Message string `json:"message"`
}
