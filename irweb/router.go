package irweb

import (
	"math"
	"strings"

	"github.com/kwkoo/irremote"
)

// URL prefixes recognized by the Router.
const (
	ButtonPrefix = "/b/"
	RawPrefix    = "/c/"
	RC6Prefix    = "/c6/"
)

// RouteKind classifies a request.
type RouteKind int

// All the different enumerations of RouteKind.
const (
	NoMatch RouteKind = iota
	NamedCommand
	RawCommand
)

func (k RouteKind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case NamedCommand:
		return "named command"
	case RawCommand:
		return "raw command"
	}
	return "unknown"
}

// Route is the outcome of routing a request. Button is only set for
// NamedCommand and Command is unset for NoMatch.
type Route struct {
	Kind    RouteKind
	Button  irremote.Button
	Command irremote.Command
}

// Router maps request lines to commands.
type Router struct {
	buttons *irremote.ButtonTable
}

// NewRouter instantiates a Router backed by buttons.
func NewRouter(buttons *irremote.ButtonTable) *Router {
	return &Router{buttons: buttons}
}

// Route classifies a header block. Only the request line is inspected.
func (r *Router) Route(header string) Route {
	req, ok := ParseRequestLine(header)
	if !ok || req.Method != "GET" {
		return Route{Kind: NoMatch}
	}
	return r.routeRequest(req)
}

// routeRequest checks named buttons, then /c/, then /c6/.
func (r *Router) routeRequest(req Request) Route {
	path := req.Path

	if strings.HasPrefix(path, ButtonPrefix) {
		token := path[len(ButtonPrefix):]
		if i := strings.IndexByte(token, '/'); i != -1 {
			token = token[:i]
		}
		if b, ok := r.buttons.Lookup(token); ok {
			return Route{Kind: NamedCommand, Button: b, Command: irremote.RC5Command(b.Code)}
		}
		return Route{Kind: NoMatch}
	}

	if strings.HasPrefix(path, RawPrefix) {
		function := parseInt(path[len(RawPrefix):])
		return Route{Kind: RawCommand, Command: irremote.RC5Command(function)}
	}

	if strings.HasPrefix(path, RC6Prefix) {
		rest := path[len(RC6Prefix):]
		var address, function int
		if len(rest) > 0 {
			address = parseInt(rest[:1])
		}
		if len(rest) > 2 {
			// rest[1] is the separator
			function = parseInt(rest[2:])
		}
		return Route{Kind: RawCommand, Command: irremote.RC6Command(address, function)}
	}

	return Route{Kind: NoMatch}
}

// parseInt reads an optionally signed decimal prefix of s. Anything it can't
// make sense of is 0; trailing garbage is ignored.
func parseInt(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	negative := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		negative = s[i] == '-'
		i++
	}

	var n int64
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int64(s[i]-'0')
		if n > math.MaxInt32+1 {
			return 0
		}
		digits++
	}
	if digits == 0 {
		return 0
	}
	if negative {
		n = -n
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0
	}
	return int(n)
}
