package provider

import (
	"net/http"
	"strings"
)

// Auth injects credentials into an outgoing request.
type Auth interface {
	Apply(req *http.Request)
	// Secrets lists values that must never appear in logs or errors.
	Secrets() []string
	// QueryParams lists query parameters that carry secrets.
	QueryParams() []string
	complete() bool
}

// HeaderToken sends a single token in a request header.
type HeaderToken struct {
	Header string
	Token  string
}

func (a HeaderToken) Apply(req *http.Request) { req.Header.Set(a.Header, a.Token) }
func (a HeaderToken) Secrets() []string       { return []string{a.Token} }
func (a HeaderToken) QueryParams() []string   { return nil }
func (a HeaderToken) complete() bool {
	return strings.TrimSpace(a.Header) != "" && strings.TrimSpace(a.Token) != ""
}

// QueryToken sends a single token as a query parameter.
type QueryToken struct {
	Param string
	Token string
}

func (a QueryToken) Apply(req *http.Request) {
	q := req.URL.Query()
	q.Set(a.Param, a.Token)
	req.URL.RawQuery = q.Encode()
}
func (a QueryToken) Secrets() []string     { return []string{a.Token} }
func (a QueryToken) QueryParams() []string { return []string{a.Param} }
func (a QueryToken) complete() bool {
	return strings.TrimSpace(a.Param) != "" && strings.TrimSpace(a.Token) != ""
}

// HeaderPair sends a user and a token in two request headers.
type HeaderPair struct {
	UserHeader  string
	User        string
	TokenHeader string
	Token       string
}

func (a HeaderPair) Apply(req *http.Request) {
	req.Header.Set(a.UserHeader, a.User)
	req.Header.Set(a.TokenHeader, a.Token)
}
func (a HeaderPair) Secrets() []string     { return []string{a.Token} }
func (a HeaderPair) QueryParams() []string { return nil }
func (a HeaderPair) complete() bool {
	return strings.TrimSpace(a.User) != "" && strings.TrimSpace(a.Token) != "" &&
		strings.TrimSpace(a.UserHeader) != "" && strings.TrimSpace(a.TokenHeader) != ""
}

// QueryPair sends a user and a token as two query parameters.
type QueryPair struct {
	UserParam  string
	User       string
	TokenParam string
	Token      string
}

func (a QueryPair) Apply(req *http.Request) {
	q := req.URL.Query()
	q.Set(a.UserParam, a.User)
	q.Set(a.TokenParam, a.Token)
	req.URL.RawQuery = q.Encode()
}
func (a QueryPair) Secrets() []string     { return []string{a.Token} }
func (a QueryPair) QueryParams() []string { return []string{a.TokenParam} }
func (a QueryPair) complete() bool {
	return strings.TrimSpace(a.User) != "" && strings.TrimSpace(a.Token) != "" &&
		strings.TrimSpace(a.UserParam) != "" && strings.TrimSpace(a.TokenParam) != ""
}
