package usecase

import (
	"strings"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
)

// DefaultTerritories are the country spellings counted as the UK.
var DefaultTerritories = []string{"united kingdom", "uk", "england", "great britain", "gb"}

var broadcasterNames = map[string]int64{
	"sky sports":                    broadcast.ProviderSky,
	"sky sports main event":         broadcast.ProviderSky,
	"sky sports premier league":     broadcast.ProviderSky,
	"sky sports football":           broadcast.ProviderSky,
	"sky go":                        broadcast.ProviderSky,
	"now":                           broadcast.ProviderSky,
	"now tv":                        broadcast.ProviderSky,
	"tnt sports":                    broadcast.ProviderTNT,
	"tnt sports 1":                  broadcast.ProviderTNT,
	"tnt sports 2":                  broadcast.ProviderTNT,
	"bt sport":                      broadcast.ProviderTNT,
	"bt sport 1":                    broadcast.ProviderTNT,
	"discovery+":                    broadcast.ProviderTNT,
	"amazon prime video":            broadcast.ProviderAmazon,
	"amazon prime":                  broadcast.ProviderAmazon,
	"prime video":                   broadcast.ProviderAmazon,
	"bbc one":                       broadcast.ProviderBBC,
	"bbc two":                       broadcast.ProviderBBC,
	"bbc iplayer":                   broadcast.ProviderBBC,
	"bbc sport":                     broadcast.ProviderBBC,
	"itv":                           broadcast.ProviderITV,
	"itv1":                          broadcast.ProviderITV,
	"itv4":                          broadcast.ProviderITV,
	"itvx":                          broadcast.ProviderITV,
	"stv":                           broadcast.ProviderITV,
	"bbc radio 5 live":              broadcast.ProviderRadio,
	"bbc radio 5 live sports extra": broadcast.ProviderRadio,
	"talksport":                     broadcast.ProviderRadio,
	"talksport 2":                   broadcast.ProviderRadio,
}

// Checked in order; the first hit wins.
var broadcasterKeywords = []struct {
	keyword    string
	providerID int64
	word       bool
}{
	{keyword: "sky", providerID: broadcast.ProviderSky},
	{keyword: "tnt", providerID: broadcast.ProviderTNT},
	{keyword: "bt", providerID: broadcast.ProviderTNT, word: true},
	{keyword: "amazon", providerID: broadcast.ProviderAmazon},
	{keyword: "prime", providerID: broadcast.ProviderAmazon},
	{keyword: "bbc", providerID: broadcast.ProviderBBC},
	{keyword: "itv", providerID: broadcast.ProviderITV},
}

// BroadcastResolver picks the UK broadcaster of a fixture from raw feed
// entries. It is total: every input yields a known provider ID.
type BroadcastResolver struct {
	territories map[string]struct{}
	unmatched   int64
}

// NewBroadcastResolver builds a resolver. unmatchedProviderID is used when
// no name rule matches; values outside the provider set fall back to Sky.
func NewBroadcastResolver(territories []string, unmatchedProviderID int64) *BroadcastResolver {
	if len(territories) == 0 {
		territories = DefaultTerritories
	}
	set := make(map[string]struct{}, len(territories))
	for _, t := range territories {
		if v := normalizeBroadcastText(t); v != "" {
			set[v] = struct{}{}
		}
	}
	if !broadcast.IsKnownProvider(unmatchedProviderID) {
		unmatchedProviderID = broadcast.ProviderSky
	}
	return &BroadcastResolver{territories: set, unmatched: unmatchedProviderID}
}

// ResolveForFixture keeps the territory's entries, takes the first in feed
// order and maps its name. No entry in the territory means blackout.
func (r *BroadcastResolver) ResolveForFixture(fixtureID int64, entries []broadcast.Entry) broadcast.Broadcast {
	for _, entry := range entries {
		if _, ok := r.territories[normalizeBroadcastText(entry.Country)]; !ok {
			continue
		}
		return broadcast.Broadcast{FixtureID: fixtureID, ProviderID: r.providerFor(entry.Name)}
	}
	return broadcast.Broadcast{FixtureID: fixtureID, ProviderID: broadcast.ProviderBlackout}
}

func (r *BroadcastResolver) providerFor(name string) int64 {
	value := normalizeBroadcastText(name)
	if id, ok := broadcasterNames[value]; ok {
		return id
	}
	words := strings.FieldsFunc(value, func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
	})
	for _, rule := range broadcasterKeywords {
		if rule.word {
			for _, w := range words {
				if w == rule.keyword {
					return rule.providerID
				}
			}
			continue
		}
		if strings.Contains(value, rule.keyword) {
			return rule.providerID
		}
	}
	return r.unmatched
}

func normalizeBroadcastText(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
