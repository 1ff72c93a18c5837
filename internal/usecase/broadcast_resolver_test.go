package usecase

import (
	"testing"

	"github.com/riskibarqy/fixture-sync/internal/domain/broadcast"
)

func TestBroadcastResolver_ScenarioSkyAndBlackout(t *testing.T) {
	t.Parallel()

	r := NewBroadcastResolver(nil, broadcast.ProviderSky)

	got := r.ResolveForFixture(42, []broadcast.Entry{{Name: "Sky Sports", Country: "England"}})
	if got != (broadcast.Broadcast{FixtureID: 42, ProviderID: broadcast.ProviderSky}) {
		t.Fatalf("unexpected assignment: %+v", got)
	}

	got = r.ResolveForFixture(43, nil)
	if got != (broadcast.Broadcast{FixtureID: 43, ProviderID: broadcast.ProviderBlackout}) {
		t.Fatalf("expected blackout for no entries, got %+v", got)
	}
}

func TestBroadcastResolver_TerritoryFilterAndFeedOrder(t *testing.T) {
	t.Parallel()

	r := NewBroadcastResolver([]string{"United Kingdom", "UK", "England"}, broadcast.ProviderSky)

	cases := []struct {
		name    string
		entries []broadcast.Entry
		want    int64
	}{
		{
			name:    "foreign only is blackout",
			entries: []broadcast.Entry{{Name: "Sky Sport", Country: "Germany"}, {Name: "ESPN", Country: "USA"}},
			want:    broadcast.ProviderBlackout,
		},
		{
			name:    "first uk entry wins",
			entries: []broadcast.Entry{{Name: "DAZN", Country: "Italy"}, {Name: "TNT Sports 1", Country: " uk "}, {Name: "Sky Sports", Country: "UK"}},
			want:    broadcast.ProviderTNT,
		},
		{
			name:    "country match is case-insensitive",
			entries: []broadcast.Entry{{Name: "BBC One", Country: "UNITED   KINGDOM"}},
			want:    broadcast.ProviderBBC,
		},
		{
			name:    "exact radio name",
			entries: []broadcast.Entry{{Name: "BBC Radio 5 Live", Country: "England"}},
			want:    broadcast.ProviderRadio,
		},
		{
			name:    "substring sky",
			entries: []broadcast.Entry{{Name: "Sky Sports Action HD", Country: "UK"}},
			want:    broadcast.ProviderSky,
		},
		{
			name:    "bt as a word",
			entries: []broadcast.Entry{{Name: "BT Sport Ultimate", Country: "UK"}},
			want:    broadcast.ProviderTNT,
		},
		{
			name:    "prime keyword",
			entries: []broadcast.Entry{{Name: "Prime Video Sport", Country: "UK"}},
			want:    broadcast.ProviderAmazon,
		},
		{
			name:    "itv keyword",
			entries: []broadcast.Entry{{Name: "ITV Hub", Country: "UK"}},
			want:    broadcast.ProviderITV,
		},
		{
			name:    "sky wins over bbc by order",
			entries: []broadcast.Entry{{Name: "BBC and Sky simulcast", Country: "UK"}},
			want:    broadcast.ProviderSky,
		},
		{
			name:    "unmatched name defaults to sky",
			entries: []broadcast.Entry{{Name: "Channel 5", Country: "UK"}},
			want:    broadcast.ProviderSky,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ResolveForFixture(1, tc.entries).ProviderID; got != tc.want {
				t.Fatalf("provider=%d want %d", got, tc.want)
			}
		})
	}
}

func TestBroadcastResolver_UnknownPolicy(t *testing.T) {
	t.Parallel()

	r := NewBroadcastResolver(nil, broadcast.ProviderUnknown)
	if got := r.ResolveForFixture(1, []broadcast.Entry{{Name: "Channel 5", Country: "UK"}}).ProviderID; got != broadcast.ProviderUnknown {
		t.Fatalf("expected unknown sentinel, got %d", got)
	}

	// An id outside the provider set falls back to Sky.
	r = NewBroadcastResolver(nil, 12345)
	if got := r.ResolveForFixture(1, []broadcast.Entry{{Name: "Channel 5", Country: "UK"}}).ProviderID; got != broadcast.ProviderSky {
		t.Fatalf("expected sky fallback, got %d", got)
	}
}

func TestBroadcastResolver_IsTotal(t *testing.T) {
	t.Parallel()

	r := NewBroadcastResolver(nil, broadcast.ProviderSky)
	inputs := [][]broadcast.Entry{
		nil,
		{},
		{{}},
		{{Name: "", Country: "UK"}},
		{{Name: "???", Country: ""}},
		{{Name: "Sky", Country: "Narnia"}},
		{{Name: "  ", Country: "gb"}},
	}
	for i, entries := range inputs {
		got := r.ResolveForFixture(int64(i+1), entries)
		if !broadcast.IsKnownProvider(got.ProviderID) {
			t.Fatalf("input %d: provider %d is outside the closed set", i, got.ProviderID)
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
	}
}
