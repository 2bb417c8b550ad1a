package inbound

import (
	mapset "github.com/deckarep/golang-set/v2"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
)

// IsServerParentRef returns true if the parent reference targets a Server
func IsServerParentRef(ref gwv1.ParentReference) bool {
	group := constants.GatewayAPIGroup
	if ref.Group != nil {
		group = string(*ref.Group)
	}

	kind := "Gateway"
	if ref.Kind != nil {
		kind = string(*ref.Kind)
	}

	return group == constants.FlomeshPolicyAPIGroup && kind == constants.ServerKind
}

// CollectParentRefs returns the Servers referenced by a route. References to other kinds,
// or without a name, are skipped. A Server referenced more than once is returned once, at its
// first position. The first invalid Server reference fails the collection.
func CollectParentRefs(routeNamespace string, refs []gwv1.ParentReference) ([]ParentRef, error) {
	var parents []ParentRef
	seen := mapset.NewThreadUnsafeSet[string]()

	for _, ref := range refs {
		if !IsServerParentRef(ref) || ref.Name == "" {
			continue
		}

		if ref.Namespace != nil && string(*ref.Namespace) != routeNamespace {
			return nil, ErrServerInAnotherNamespace
		}
		if ref.Port != nil {
			return nil, ErrSpecifiesPort
		}
		if ref.SectionName != nil {
			return nil, ErrSpecifiesSection
		}

		if seen.Add(string(ref.Name)) {
			parents = append(parents, ParentRef{Server: string(ref.Name)})
		}
	}

	return parents, nil
}
