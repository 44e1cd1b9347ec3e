// Package rfc9111 implements the parts of RFC 9111 (HTTP Caching) this
// library needs itself: parsing the Cache-Control field into the
// directive set the surrounding client's freshness computation runs on.
package rfc9111

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Directives is the parsed, immutable form of a Cache-Control header
// value. Numeric directives are in whole seconds with -1 meaning
// "absent", so an explicit zero stays distinguishable from absence.
// The zero value of this type is NOT the all-absent value; use
// ParseCacheControl (or Defaults) to construct one.
//
// §  5.2. Cache-Control
// §
// §  The "Cache-Control" header field is used to list directives for caches along
// §  the request/response chain. [...] Cache directives are identified by a token, to
// §  be compared case-insensitively, and have an optional argument that can use both
// §  token and quoted-string syntax.
// §
// §    Cache-Control   = #cache-directive
// §
// §    cache-directive = token [ "=" ( token / quoted-string ) ]
type Directives struct {
	// MaxAge is the max-age directive in seconds, -1 if absent.
	MaxAge int
	// SMaxAge is the s-maxage directive in seconds, -1 if absent.
	// When present it takes precedence over max-age for shared caches;
	// that precedence is the consumer's rule, not applied here.
	SMaxAge int

	MustRevalidate  bool
	NoCache         bool
	NoStore         bool
	Private         bool
	ProxyRevalidate bool
	Public          bool
}

// Defaults returns the all-absent directive set: numeric fields -1,
// every flag false. This is also what an empty or missing header
// parses to.
func Defaults() Directives {
	return Directives{MaxAge: -1, SMaxAge: -1}
}

// ParseCacheControl parses a raw Cache-Control header value. It never
// fails: a malformed numeric argument drops that one directive (logged,
// not fatal), and unrecognized directive names are ignored for forward
// compatibility. Boolean directives are recognized by name alone; a
// stray "=value" on one is tolerated and the value ignored.
func ParseCacheControl(header string) Directives {
	d := Defaults()
	// process directives: "#" means a comma-separated list, and some
	// legacy senders use ";" as the separator
	for _, directive := range strings.FieldsFunc(header, isDirectiveSeparator) {
		name, arg, _ := strings.Cut(directive, "=")
		name = getDirectiveName(name)
		arg = getDirectiveArgument(arg)
		switch name {
		case "max-age":
			if seconds, ok := parseDirectiveSeconds(name, arg); ok {
				d.MaxAge = seconds
			}
		case "s-maxage":
			if seconds, ok := parseDirectiveSeconds(name, arg); ok {
				d.SMaxAge = seconds
			}
		case "must-revalidate":
			d.MustRevalidate = true
		case "no-cache":
			d.NoCache = true
		case "no-store":
			d.NoStore = true
		case "private":
			d.Private = true
		case "proxy-revalidate":
			d.ProxyRevalidate = true
		case "public":
			d.Public = true
		}
	}
	return d
}

func isDirectiveSeparator(r rune) bool {
	return r == ',' || r == ';'
}

// getDirectiveName returns a normalized name for the given directive.
func getDirectiveName(token string) string {
	// §  [...] to be compared case-insensitively [...]
	return strings.ToLower(strings.TrimSpace(token))
}

// getDirectiveArgument returns the directive argument in token form,
// i.e. it converts the argument from "quoted-string" to "token" form if
// needed.
func getDirectiveArgument(arg string) string {
	// §  [...] argument that can use both token and quoted-string syntax. [...]
	return strings.Trim(strings.TrimSpace(arg), "\"")
}

// parseDirectiveSeconds parses the argument of a numeric directive as a
// signed integer. One unparseable directive must not invalidate the
// directives that parsed fine, so failures are skipped with a log line.
func parseDirectiveSeconds(name, arg string) (int, bool) {
	seconds, err := strconv.Atoi(arg)
	if err != nil {
		log.Debug().Str("directive", name).Str("argument", arg).
			Msg("Skipping directive with malformed numeric argument")
		return 0, false
	}
	return seconds, true
}
