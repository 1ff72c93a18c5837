package app

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
)

// binaryParamsKey makes lib/pq send bind parameters in binary and skip the
// unnamed prepared statement, which transaction poolers cannot route.
const binaryParamsKey = "binary_parameters"

const maxTracedStatement = 512

// postgresDSN prepares DB_URL for lib/pq. Both the URL and the key=value
// forms are accepted; an explicit binary_parameters setting always wins.
func postgresDSN(raw string, poolerSafe bool) string {
	raw = strings.TrimSpace(raw)
	if !poolerSafe || raw == "" {
		return raw
	}
	if !isPostgresURL(raw) {
		if strings.Contains(raw, binaryParamsKey+"=") {
			return raw
		}
		return raw + " " + binaryParamsKey + "=yes"
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Has(binaryParamsKey) {
		return raw
	}
	query.Set(binaryParamsKey, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// postgresDBName reports the database a DSN points at for span attributes.
func postgresDBName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if isPostgresURL(dsn) {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return ""
		}
		dsn = converted
	}
	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `'"`)
		}
	}
	return ""
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// traceStatement collapses whitespace so multi-line queries read as one span
// attribute, cut at a rune boundary past maxTracedStatement bytes.
func traceStatement(query string) string {
	flat := strings.Join(strings.Fields(query), " ")
	if len(flat) <= maxTracedStatement {
		return flat
	}
	cut := maxTracedStatement
	for cut > 0 && !utf8.RuneStart(flat[cut]) {
		cut--
	}
	return flat[:cut] + "..."
}
