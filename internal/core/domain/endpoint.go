package domain

import (
	"fmt"
	"strings"
)

// Endpoint is the resolved API base URL for an instance.
type Endpoint struct {
	baseURL string
}

// BaseURL returns the endpoint base URL, without a trailing slash.
func (e Endpoint) BaseURL() string {
	return e.baseURL
}

// String returns the base URL.
func (e Endpoint) String() string {
	return e.baseURL
}

// IsMax reports whether the endpoint serves a MAX instance. MAX pools are
// reachable only under the /v3 path of their API host.
func (e Endpoint) IsMax() bool {
	return strings.Contains(e.baseURL, "/v3")
}

// poolRule maps a pool code to its serving hosts. When directHost is set the
// pool has a dedicated per-pool hostname; defaultHost is the shared entry.
type poolRule struct {
	defaultHost string
	directHost  string
	pathPrefix  string
}

// Exact pool assignments from the provider's support documentation.
var exactRules = map[int]poolRule{
	1101: {defaultHost: "https://api.green-api.com"},
	1102: {defaultHost: "https://api.green-api.com"},
	1103: {defaultHost: "https://api.greenapi.com", directHost: "https://1103.api.green-api.com"},
	2204: {defaultHost: "https://api.greenapi.com"},
	7103: {defaultHost: "https://api.greenapi.com", directHost: "https://7103.api.greenapi.com"},
	9903: {defaultHost: "https://api.p03.green-api.com", directHost: "https://9903.api.green-api.com"},
	9906: {defaultHost: "https://api.green-api.com", directHost: "https://9906.api.green-api.com"},
}

// Prefix assignments cover whole pool families ("55XX", "77XX", ...). First
// match wins, so the list order is significant.
var prefixRules = []struct {
	prefix string
	rule   poolRule
}{
	{"99", poolRule{defaultHost: "https://api.p03.green-api.com"}},
	{"33", poolRule{defaultHost: "https://api.green-api.com"}},
	{"55", poolRule{defaultHost: "https://api.green-api.com"}},
	{"57", poolRule{defaultHost: "https://api.green-api.com", directHost: "https://5700.api.green-api.com"}},
	{"77", poolRule{defaultHost: "https://api.greenapi.com", directHost: "https://7700.api.greenapi.com"}},
	{"31", poolRule{defaultHost: "https://api.green-api.com", directHost: "https://3100.api.green-api.com", pathPrefix: "/v3"}},
	{"35", poolRule{defaultHost: "https://api.green-api.com", directHost: "https://3500.api.green-api.com", pathPrefix: "/v3"}},
}

// fallbackRule serves pools with no documented assignment.
var fallbackRule = poolRule{defaultHost: "https://api.greenapi.com"}

// ResolveEndpoint returns the API base URL serving the given instance.
// Resolution order: exact pool rule, then pool-family prefix rule, then the
// documented shared default. With preferDirect set, pools with a dedicated
// hostname resolve to it instead of the shared entry.
func ResolveEndpoint(id InstanceID, preferDirect bool) Endpoint {
	pool := id.PoolCode()
	poolStr := fmt.Sprintf("%04d", pool)

	rule, ok := exactRules[pool]
	if !ok {
		for _, pr := range prefixRules {
			if strings.HasPrefix(poolStr, pr.prefix) {
				rule = pr.rule
				ok = true
				break
			}
		}
	}
	if !ok {
		rule = fallbackRule
	}

	host := rule.defaultHost
	if preferDirect && rule.directHost != "" {
		host = rule.directHost
	}

	if rule.pathPrefix != "" && !strings.HasSuffix(host, rule.pathPrefix) {
		host = strings.TrimRight(host, "/") + rule.pathPrefix
	}

	return Endpoint{baseURL: host}
}
