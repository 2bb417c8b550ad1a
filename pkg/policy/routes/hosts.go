package routes

import (
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// HostMatchType is the type of a hostname match
type HostMatchType int

const (
	// HostMatchExact matches a single hostname
	HostMatchExact HostMatchType = iota

	// HostMatchSuffix matches every hostname below a domain
	HostMatchSuffix
)

// HostMatch matches the authority of a request
type HostMatch struct {
	Type HostMatchType

	// Exact is the hostname of an exact match
	Exact string

	// ReverseLabels are the labels of the domain of a suffix match, top level domain first
	ReverseLabels []string
}

// ExactHost returns a match for the given hostname
func ExactHost(host string) HostMatch {
	return HostMatch{Type: HostMatchExact, Exact: strings.ToLower(host)}
}

// SuffixHost returns a match for every hostname below domain
func SuffixHost(domain string) HostMatch {
	labels := strings.Split(strings.ToLower(domain), ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return HostMatch{Type: HostMatchSuffix, ReverseLabels: labels}
}

// ParseHostMatch parses a route hostname. A leading "*." label matches any subdomain.
func ParseHostMatch(hostname string) (HostMatch, error) {
	if domain, ok := strings.CutPrefix(hostname, "*."); ok {
		if strings.Contains(domain, "*") {
			return HostMatch{}, errors.Errorf("hostname %q may only contain a wildcard as its first label", hostname)
		}
		if errs := validation.IsDNS1123Subdomain(strings.ToLower(domain)); len(errs) > 0 {
			return HostMatch{}, errors.Errorf("invalid hostname %q: %s", hostname, strings.Join(errs, ", "))
		}
		return SuffixHost(domain), nil
	}

	if strings.Contains(hostname, "*") {
		return HostMatch{}, errors.Errorf("hostname %q may only contain a wildcard as its first label", hostname)
	}
	if errs := validation.IsDNS1123Subdomain(strings.ToLower(hostname)); len(errs) > 0 {
		return HostMatch{}, errors.Errorf("invalid hostname %q: %s", hostname, strings.Join(errs, ", "))
	}
	return ExactHost(hostname), nil
}

// ParseHostMatches parses the hostnames of a route, the first malformed hostname fails the parse
func ParseHostMatches(hostnames []gwv1.Hostname) ([]HostMatch, error) {
	if len(hostnames) == 0 {
		return nil, nil
	}

	matches := make([]HostMatch, 0, len(hostnames))
	for _, h := range hostnames {
		m, err := ParseHostMatch(string(h))
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Domain returns the domain of a suffix match
func (h HostMatch) Domain() string {
	labels := make([]string, len(h.ReverseLabels))
	for i, l := range h.ReverseLabels {
		labels[len(labels)-1-i] = l
	}
	return strings.Join(labels, ".")
}

func (h HostMatch) String() string {
	if h.Type == HostMatchSuffix {
		return "*." + h.Domain()
	}
	return h.Exact
}

