package team

// aliases maps the slug of a provider spelling to the canonical club name.
var aliases = map[string]string{
	"man-city":            "Manchester City",
	"man-utd":             "Manchester United",
	"man-united":          "Manchester United",
	"manchester-utd":      "Manchester United",
	"spurs":               "Tottenham Hotspur",
	"tottenham":           "Tottenham Hotspur",
	"wolves":              "Wolverhampton Wanderers",
	"wolverhampton":       "Wolverhampton Wanderers",
	"nottm-forest":        "Nottingham Forest",
	"nottingham":          "Nottingham Forest",
	"forest":              "Nottingham Forest",
	"brighton":            "Brighton & Hove Albion",
	"brighton-hove":       "Brighton & Hove Albion",
	"brighton-hove-alb":   "Brighton & Hove Albion",
	"west-ham":            "West Ham United",
	"newcastle":           "Newcastle United",
	"newcastle-utd":       "Newcastle United",
	"leicester":           "Leicester City",
	"ipswich":             "Ipswich Town",
	"bournemouth":         "AFC Bournemouth",
	"leeds":               "Leeds United",
	"sheffield-utd":       "Sheffield United",
	"sheff-utd":           "Sheffield United",
	"sheffield-weds":      "Sheffield Wednesday",
	"sheff-wed":           "Sheffield Wednesday",
	"west-brom":           "West Bromwich Albion",
	"qpr":                 "Queens Park Rangers",
	"norwich":             "Norwich City",
	"stoke":               "Stoke City",
	"swansea":             "Swansea City",
	"cardiff":             "Cardiff City",
	"hull":                "Hull City",
	"coventry":            "Coventry City",
	"luton":               "Luton Town",
	"derby":               "Derby County",
	"preston":             "Preston North End",
	"blackburn":           "Blackburn Rovers",
	"bristol-c":           "Bristol City",
	"plymouth":            "Plymouth Argyle",
	"oxford-utd":          "Oxford United",
	"psg":                 "Paris Saint-Germain",
	"paris-sg":            "Paris Saint-Germain",
	"inter":               "Inter Milan",
	"internazionale":      "Inter Milan",
	"fc-internazionale":   "Inter Milan",
	"bayern":              "Bayern Munich",
	"bayern-munchen":      "Bayern Munich",
	"fc-bayern-munchen":   "Bayern Munich",
	"barca":               "Barcelona",
	"fc-barcelona":        "Barcelona",
	"atleti":              "Atletico Madrid",
	"bvb":                 "Borussia Dortmund",
}

// CanonicalName returns the canonical spelling for a known alias.
func CanonicalName(name string) (string, bool) {
	canonical, ok := aliases[Slugify(CleanName(name))]
	return canonical, ok
}
