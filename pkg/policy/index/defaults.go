package index

import (
	"net/http"
	"net/netip"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
	"github.com/flomesh-io/fsm-policy/pkg/policy/routes"
)

var allNetworks = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/0"),
	netip.MustParsePrefix("::/0"),
}

func toNetworks(prefixes []netip.Prefix) []routes.Network {
	networks := make([]routes.Network, 0, len(prefixes))
	for _, p := range prefixes {
		networks = append(networks, routes.Network{Net: p})
	}
	return networks
}

// defaultAuthorizations returns the server level authorizations of a default inbound policy
func defaultAuthorizations(policy string, clusterNetworks []netip.Prefix) map[routes.AuthorizationRef]routes.ClientAuthorization {
	authzs := make(map[routes.AuthorizationRef]routes.ClientAuthorization)

	var networks []netip.Prefix
	authn := routes.ClientAuthentication{Type: routes.Unauthenticated}

	switch policy {
	case constants.AllUnauthenticatedPolicy:
		networks = allNetworks
	case constants.AllAuthenticatedPolicy:
		networks = allNetworks
		authn = meshTLSAuthenticated()
	case constants.ClusterUnauthenticatedPolicy:
		networks = clusterNetworks
	case constants.ClusterAuthenticatedPolicy:
		networks = clusterNetworks
		authn = meshTLSAuthenticated()
	default:
		return authzs
	}

	authzs[routes.DefaultAuthorizationRef(policy)] = routes.ClientAuthorization{
		Networks:       toNetworks(networks),
		Authentication: authn,
	}
	return authzs
}

func meshTLSAuthenticated() routes.ClientAuthentication {
	return routes.ClientAuthentication{
		Type:       routes.TLSAuthenticated,
		Identities: []routes.IdentityMatch{routes.ParseIdentityMatch("*")},
	}
}

// probeRoutes returns the default route allowing the HTTP probes declared by the pod for the port
func probeRoutes(pod *podState, port int32, probeNetworks []netip.Prefix) map[routes.RouteRef]routes.InboundRoute[routes.HTTPRouteMatch] {
	result := make(map[routes.RouteRef]routes.InboundRoute[routes.HTTPRouteMatch])

	paths := pod.probePaths[port]
	if len(paths) == 0 {
		return result
	}

	matches := make([]routes.HTTPRouteMatch, 0, len(paths))
	for _, path := range paths {
		matches = append(matches, routes.HTTPRouteMatch{
			Path:   &routes.PathMatch{Type: routes.PathMatchExact, Value: path},
			Method: http.MethodGet,
		})
	}

	result[routes.DefaultRouteRef(constants.ProbeRouteName)] = routes.InboundRoute[routes.HTTPRouteMatch]{
		Rules: []routes.InboundRouteRule[routes.HTTPRouteMatch]{{Matches: matches}},
		Authorizations: map[routes.AuthorizationRef]routes.ClientAuthorization{
			routes.DefaultAuthorizationRef(constants.ProbeAuthorizationName): {
				Networks:       toNetworks(probeNetworks),
				Authentication: routes.ClientAuthentication{Type: routes.Unauthenticated},
			},
		},
	}
	return result
}
