package v1beta3

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gwv1alpha2 "sigs.k8s.io/gateway-api/apis/v1alpha2"
)

// AuthorizationPolicySpec defines the desired state of AuthorizationPolicy
type AuthorizationPolicySpec struct {
	// TargetRef references a Server, a route or a Namespace the policy applies to
	TargetRef gwv1alpha2.LocalPolicyTargetReference `json:"targetRef"`

	// +kubebuilder:validation:MaxItems=16
	// RequiredAuthenticationRefs references the MeshTLSAuthentication, NetworkAuthentication
	// or ServiceAccount resources a client must satisfy, all of them are required
	RequiredAuthenticationRefs []gwv1alpha2.NamespacedPolicyTargetReference `json:"requiredAuthenticationRefs"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:storageversion
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,categories=policy,shortName=authzpolicy
// +kubebuilder:printcolumn:name="Target Kind",type=string,JSONPath=`.spec.targetRef.kind`
// +kubebuilder:printcolumn:name="Target Name",type=string,JSONPath=`.spec.targetRef.name`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// AuthorizationPolicy authorizes clients to reach a target.
type AuthorizationPolicy struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Spec defines the desired state of AuthorizationPolicy.
	Spec AuthorizationPolicySpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// AuthorizationPolicyList contains a list of AuthorizationPolicy
type AuthorizationPolicyList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []AuthorizationPolicy `json:"items"`
}

// MeshTLSAuthenticationSpec defines the desired state of MeshTLSAuthentication
type MeshTLSAuthenticationSpec struct {
	// +optional
	// Identities are the mesh TLS identities of authenticated clients, "*" matches any identity
	// and a leading "*." matches a suffix
	Identities []string `json:"identities,omitempty"`

	// +optional
	// IdentityRefs references ServiceAccounts or Namespaces whose identities are authenticated
	IdentityRefs []gwv1alpha2.NamespacedPolicyTargetReference `json:"identityRefs,omitempty"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:storageversion
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,categories=policy,shortName=meshtlsauthn

// MeshTLSAuthentication defines a set of authenticated mesh TLS client identities.
type MeshTLSAuthentication struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Spec defines the desired state of MeshTLSAuthentication.
	Spec MeshTLSAuthenticationSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// MeshTLSAuthenticationList contains a list of MeshTLSAuthentication
type MeshTLSAuthenticationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []MeshTLSAuthentication `json:"items"`
}

// Network is a CIDR with optional exclusions
type Network struct {
	// Cidr is the network in CIDR notation or a single address
	Cidr string `json:"cidr"`

	// +optional
	// Except are the sub-networks of Cidr that are excluded
	Except []string `json:"except,omitempty"`
}

// NetworkAuthenticationSpec defines the desired state of NetworkAuthentication
type NetworkAuthenticationSpec struct {
	// +kubebuilder:validation:MinItems=1
	// Networks are the client networks
	Networks []Network `json:"networks"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:storageversion
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,categories=policy,shortName=netauthn

// NetworkAuthentication defines a set of authenticated client networks.
type NetworkAuthentication struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Spec defines the desired state of NetworkAuthentication.
	Spec NetworkAuthenticationSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// NetworkAuthenticationList contains a list of NetworkAuthentication
type NetworkAuthenticationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []NetworkAuthentication `json:"items"`
}
