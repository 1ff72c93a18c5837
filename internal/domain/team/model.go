package team

import (
	"fmt"
	"strings"
)

// Team is a canonical club shared by every competition it plays in.
type Team struct {
	ID            int64
	Name          string
	ShortName     string
	TLA           string
	Slug          string
	CompetitionID int64
	CrestURL      string
	Venue         string
	Founded       int
	ClubColors    string
	Website       string
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Slug == "" {
		return fmt.Errorf("team slug is required")
	}
	if t.Slug != Slugify(t.Slug) {
		return fmt.Errorf("team slug %q is not normalized", t.Slug)
	}
	return nil
}

// Ref is how a provider identifies a team inside a match payload.
type Ref struct {
	ProviderID int64
	Name       string
	ShortName  string
}

func (r Ref) IsZero() bool {
	return r.ProviderID <= 0 && strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.ShortName) == ""
}
