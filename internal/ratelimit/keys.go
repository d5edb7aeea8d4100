package ratelimit

import (
	"fmt"
	"strings"
)

// Counter keys follow rate:<scope>[:<path>]:<identifier>:<windowId>. The
// whitelist lives under its own prefix so set operations never contend with
// counter operations.
const (
	counterPrefix = "rate"
	whitelistKey  = "rate_limit:whitelist"
)

func counterKey(scope Scope, identifier, pathPattern string, windowID int64) string {
	if scope == ScopeEndpoint {
		return fmt.Sprintf("%s:%s:%s:%s:%d", counterPrefix, scope, pathPattern, identifier, windowID)
	}
	return fmt.Sprintf("%s:%s:%s:%d", counterPrefix, scope, identifier, windowID)
}

// counterPattern builds the glob used by stats and clear operations. Filters
// compose the way the admin surface exposes them: identifier and path
// together address one endpoint bucket, either alone widens the match.
func counterPattern(scope Scope, identifier, pathPattern string) string {
	switch {
	case identifier != "" && pathPattern != "":
		return fmt.Sprintf("%s:%s:%s:%s:*", counterPrefix, ScopeEndpoint, pathPattern, identifier)
	case identifier != "":
		switch scope {
		case ScopeGlobal:
			return fmt.Sprintf("%s:%s:%s:*", counterPrefix, ScopeGlobal, identifier)
		case ScopeEndpoint:
			return fmt.Sprintf("%s:%s:*:%s:*", counterPrefix, ScopeEndpoint, identifier)
		default:
			return fmt.Sprintf("%s:*:%s:*", counterPrefix, identifier)
		}
	case pathPattern != "":
		return fmt.Sprintf("%s:%s:%s:*", counterPrefix, ScopeEndpoint, pathPattern)
	case scope != "":
		return fmt.Sprintf("%s:%s:*", counterPrefix, scope)
	default:
		return counterPrefix + ":*"
	}
}

// parsedKey is the decomposition of a counter key used when aggregating
// stats. Endpoint paths never contain ':', so splitting on it is safe.
type parsedKey struct {
	scope    string
	path     string
	client   string
	windowID string
}

func parseCounterKey(key string) (parsedKey, bool) {
	parts := strings.Split(key, ":")
	if len(parts) < 3 || parts[0] != counterPrefix {
		return parsedKey{}, false
	}
	switch parts[1] {
	case string(ScopeGlobal):
		p := parsedKey{scope: parts[1], path: string(ScopeGlobal), client: parts[2], windowID: "unknown"}
		if len(parts) > 3 {
			p.windowID = parts[3]
		}
		return p, true
	case string(ScopeEndpoint):
		if len(parts) < 4 {
			return parsedKey{}, false
		}
		p := parsedKey{scope: parts[1], path: parts[2], client: parts[3], windowID: "unknown"}
		if len(parts) > 4 {
			p.windowID = parts[4]
		}
		return p, true
	default:
		return parsedKey{}, false
	}
}
