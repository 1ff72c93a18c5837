package broadcast

import "fmt"

// Provider IDs form a closed set.
const (
	ProviderSky      int64 = 1
	ProviderTNT      int64 = 2
	ProviderAmazon   int64 = 3
	ProviderBBC      int64 = 4
	ProviderITV      int64 = 5
	ProviderRadio    int64 = 6
	ProviderUnknown  int64 = 998
	ProviderBlackout int64 = 999
)

// Provider is a broadcaster row in the providers table.
type Provider struct {
	ID         int64
	Name       string
	Slug       string
	BrandColor string
}

var providers = []Provider{
	{ID: ProviderSky, Name: "Sky Sports", Slug: "sky-sports", BrandColor: "#0072C9"},
	{ID: ProviderTNT, Name: "TNT Sports", Slug: "tnt-sports", BrandColor: "#E0004D"},
	{ID: ProviderAmazon, Name: "Amazon Prime Video", Slug: "amazon-prime-video", BrandColor: "#00A8E1"},
	{ID: ProviderBBC, Name: "BBC", Slug: "bbc", BrandColor: "#000000"},
	{ID: ProviderITV, Name: "ITV", Slug: "itv", BrandColor: "#102C3C"},
	{ID: ProviderRadio, Name: "Radio", Slug: "radio", BrandColor: "#6B7280"},
	{ID: ProviderUnknown, Name: "Unknown", Slug: "unknown", BrandColor: "#9CA3AF"},
	{ID: ProviderBlackout, Name: "Not televised", Slug: "blackout", BrandColor: "#374151"},
}

// Providers lists every known broadcaster, sentinels included.
func Providers() []Provider {
	return append([]Provider(nil), providers...)
}

func IsKnownProvider(id int64) bool {
	for _, p := range providers {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Broadcast assigns one UK broadcaster to a fixture.
type Broadcast struct {
	FixtureID  int64
	ProviderID int64
}

func (b Broadcast) Validate() error {
	if b.FixtureID <= 0 {
		return fmt.Errorf("broadcast fixture id is required")
	}
	if !IsKnownProvider(b.ProviderID) {
		return fmt.Errorf("broadcast fixture %d: unknown provider id %d", b.FixtureID, b.ProviderID)
	}
	return nil
}

// Entry is one raw broadcaster listing from a provider feed.
type Entry struct {
	Name    string
	Country string
}
