package memory

import "github.com/riskibarqy/fixture-sync/internal/domain/competition"

func competitionFixture() competition.Competition {
	return competition.Competition{ID: 1, ProviderID: 2021, Code: "PL", Name: "Premier League", Slug: "premier-league", Type: competition.TypeLeague, IsActive: true}
}
