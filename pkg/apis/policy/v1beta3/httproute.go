package v1beta3

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	gwv1 "sigs.k8s.io/gateway-api/apis/v1"
)

// HTTPRouteSpec defines the desired state of HTTPRoute
type HTTPRouteSpec struct {
	gwv1.CommonRouteSpec `json:",inline"`

	// +optional
	// +kubebuilder:validation:MaxItems=16
	// Hostnames defines a set of hostname that should match against the HTTP Host header
	Hostnames []gwv1.Hostname `json:"hostnames,omitempty"`

	// +optional
	// +kubebuilder:validation:MaxItems=16
	// Rules are a list of HTTP matchers and filters
	Rules []HTTPRouteRule `json:"rules,omitempty"`
}

// HTTPRouteRule defines the matches and filters of an inbound HTTP route
type HTTPRouteRule struct {
	// +optional
	// +kubebuilder:validation:MaxItems=8
	// Matches define conditions used for matching the rule against incoming HTTP requests
	Matches []gwv1.HTTPRouteMatch `json:"matches,omitempty"`

	// +optional
	// +kubebuilder:validation:MaxItems=16
	// Filters define the filters that are applied to requests that match this rule
	Filters []HTTPRouteFilter `json:"filters,omitempty"`

	// +optional
	// Timeouts defines the timeouts that can be configured for an HTTP request
	Timeouts *gwv1.HTTPRouteTimeouts `json:"timeouts,omitempty"`
}

// HTTPRouteFilterType is the type of an inbound HTTP route filter
// +kubebuilder:validation:Enum=RequestHeaderModifier;ResponseHeaderModifier;RequestRedirect
type HTTPRouteFilterType string

const (
	// HTTPRouteFilterRequestHeaderModifier modifies the request headers
	HTTPRouteFilterRequestHeaderModifier HTTPRouteFilterType = "RequestHeaderModifier"

	// HTTPRouteFilterResponseHeaderModifier modifies the response headers
	HTTPRouteFilterResponseHeaderModifier HTTPRouteFilterType = "ResponseHeaderModifier"

	// HTTPRouteFilterRequestRedirect responds with a redirect
	HTTPRouteFilterRequestRedirect HTTPRouteFilterType = "RequestRedirect"
)

// HTTPRouteFilter defines processing steps applied to matching requests. Unlike the Gateway API
// filter, it can only modify headers or redirect.
type HTTPRouteFilter struct {
	// Type identifies the type of filter to apply
	Type HTTPRouteFilterType `json:"type"`

	// +optional
	// RequestHeaderModifier defines a schema for a filter that modifies request headers
	RequestHeaderModifier *gwv1.HTTPHeaderFilter `json:"requestHeaderModifier,omitempty"`

	// +optional
	// ResponseHeaderModifier defines a schema for a filter that modifies response headers
	ResponseHeaderModifier *gwv1.HTTPHeaderFilter `json:"responseHeaderModifier,omitempty"`

	// +optional
	// RequestRedirect defines a schema for a filter that responds to the request with an HTTP redirection
	RequestRedirect *gwv1.HTTPRequestRedirectFilter `json:"requestRedirect,omitempty"`
}

// HTTPRouteStatus defines the observed state of HTTPRoute
type HTTPRouteStatus struct {
	gwv1.RouteStatus `json:",inline"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:storageversion
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,categories=policy
// +kubebuilder:printcolumn:name="Hostnames",type=string,JSONPath=`.spec.hostnames`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// HTTPRoute provides a way to route inbound HTTP requests of a Server.
type HTTPRoute struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Spec defines the desired state of HTTPRoute.
	Spec HTTPRouteSpec `json:"spec,omitempty"`

	// Status defines the current state of HTTPRoute.
	Status HTTPRouteStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// HTTPRouteList contains a list of HTTPRoute
type HTTPRouteList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []HTTPRoute `json:"items"`
}
