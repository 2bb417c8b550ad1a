// +k8s:deepcopy-gen=package,register
// +groupName=policy.flomesh.io

// Package v1beta3 contains API Schema definitions for the policy.flomesh.io v1beta3 API group
package v1beta3

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/flomesh-io/fsm-policy/pkg/constants"
)

var (
	// SchemeGroupVersion is group version used to register the policy resources
	SchemeGroupVersion = schema.GroupVersion{
		Group:   constants.FlomeshPolicyAPIGroup,
		Version: "v1beta3",
	}

	// SchemeBuilder is used to add go types to the GroupVersionKind scheme
	SchemeBuilder = runtime.NewSchemeBuilder(addKnownTypes)

	// AddToScheme adds all Resources to the Scheme
	AddToScheme = SchemeBuilder.AddToScheme
)

// Kind takes an unqualified kind and returns back a Group qualified GroupKind
func Kind(kind string) schema.GroupKind {
	return SchemeGroupVersion.WithKind(kind).GroupKind()
}

// Resource takes an unqualified resource and returns a Group qualified GroupResource
func Resource(resource string) schema.GroupResource {
	return SchemeGroupVersion.WithResource(resource).GroupResource()
}

// GroupVersionResources of the watched policy resources
var (
	ServersResource                = SchemeGroupVersion.WithResource("servers")
	HTTPRoutesResource             = SchemeGroupVersion.WithResource("httproutes")
	AuthorizationPoliciesResource  = SchemeGroupVersion.WithResource("authorizationpolicies")
	MeshTLSAuthenticationsResource = SchemeGroupVersion.WithResource("meshtlsauthentications")
	NetworkAuthenticationsResource = SchemeGroupVersion.WithResource("networkauthentications")
)

// Adds the list of known types to Scheme.
func addKnownTypes(scheme *runtime.Scheme) error {
	scheme.AddKnownTypes(SchemeGroupVersion,
		&Server{},
		&ServerList{},
		&HTTPRoute{},
		&HTTPRouteList{},
		&AuthorizationPolicy{},
		&AuthorizationPolicyList{},
		&MeshTLSAuthentication{},
		&MeshTLSAuthenticationList{},
		&NetworkAuthentication{},
		&NetworkAuthenticationList{},
	)

	metav1.AddToGroupVersion(
		scheme,
		SchemeGroupVersion,
	)
	return nil
}
