package fixture

import (
	"fmt"
	"strings"
	"time"
)

// Status is the canonical lowercase match state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusPostponed Status = "postponed"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
)

// Statuses lists the canonical set in lifecycle order.
func Statuses() []Status {
	return []Status{StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusSuspended, StatusCanceled}
}

func (s Status) IsCanonical() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusSuspended, StatusCanceled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusCanceled:
		return true
	default:
		return false
	}
}

// Fixture is one match. ID is the fixtures provider's match ID.
type Fixture struct {
	ID             int64
	CompetitionID  int64
	HomeTeamID     int64
	AwayTeamID     int64
	KickoffUTC     time.Time
	Status         Status
	Matchday       *int
	Stage          string
	Round          string
	LiveProviderID *int64
	HomeScore      *int
	AwayScore      *int
	LastSyncedAt   *time.Time
}

func (f Fixture) Validate() error {
	if f.ID <= 0 {
		return fmt.Errorf("fixture id is required")
	}
	if f.HomeTeamID <= 0 || f.AwayTeamID <= 0 {
		return fmt.Errorf("fixture %d: both teams are required", f.ID)
	}
	if f.HomeTeamID == f.AwayTeamID {
		return fmt.Errorf("fixture %d: home and away team are the same (%d)", f.ID, f.HomeTeamID)
	}
	if f.KickoffUTC.IsZero() {
		return fmt.Errorf("fixture %d: kickoff is required", f.ID)
	}
	if f.Status == "" {
		return fmt.Errorf("fixture %d: status is required", f.ID)
	}
	return nil
}

// LiveUpdate is the state the live-score loop writes back onto a fixture.
type LiveUpdate struct {
	Status    Status
	HomeScore *int
	AwayScore *int
	SyncedAt  time.Time
}

// HumanizeLabel turns provider enums such as "LAST_16" into "Last 16".
func HumanizeLabel(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || strings.ToUpper(value) != value {
		return value
	}
	words := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
