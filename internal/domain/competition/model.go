package competition

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fixture-sync/internal/domain/fixture"
	"github.com/riskibarqy/fixture-sync/internal/domain/team"
)

// Type controls which fixture fields are populated on import.
type Type string

const (
	TypeLeague Type = "LEAGUE"
	TypeCup    Type = "CUP"
)

// Competition is the stored row for a league or cup.
type Competition struct {
	ID         int64
	ProviderID int64
	Code       string
	Name       string
	Slug       string
	Type       Type
	Season     string
	IsActive   bool
}

func (c Competition) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("competition id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("competition name is required")
	}
	if c.Type != TypeLeague && c.Type != TypeCup {
		return fmt.Errorf("competition type %q is invalid", c.Type)
	}
	return nil
}

// Hooks are optional pure adjustments applied to records of one
// competition after the shared transform.
type Hooks struct {
	Team    func(t *team.Team)
	Fixture func(f *fixture.Fixture)
}

// Config is a registry entry: everything an importer needs to know about one
// competition.
type Config struct {
	ID         int64  `validate:"required,gt=0"`
	ProviderID int64  `validate:"required,gt=0"`
	Code       string `validate:"required"`
	Name       string `validate:"required"`
	Slug       string `validate:"required,lowercase"`
	Type       Type   `validate:"required,oneof=LEAGUE CUP"`
	Season     string
	IsActive   bool
	Hooks      Hooks `validate:"-"`
}

func (c Config) Competition() Competition {
	return Competition{
		ID:         c.ID,
		ProviderID: c.ProviderID,
		Code:       c.Code,
		Name:       c.Name,
		Slug:       c.Slug,
		Type:       c.Type,
		Season:     c.Season,
		IsActive:   c.IsActive,
	}
}

// WithSeason returns a copy targeting season; blank keeps the configured one.
func (c Config) WithSeason(season string) Config {
	if s := strings.TrimSpace(season); s != "" {
		c.Season = s
	}
	return c
}

func (c Config) IsCup() bool {
	return c.Type == TypeCup
}
