package v1beta3

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// ProxyProtocol is the protocol a Server declares for its port
// +kubebuilder:validation:Enum=unknown;HTTP/1;HTTP/2;gRPC;opaque;TLS
type ProxyProtocol string

const (
	// ProxyProtocolUnknown lets the proxy detect the protocol
	ProxyProtocolUnknown ProxyProtocol = "unknown"

	// ProxyProtocolHTTP1 is HTTP/1.x
	ProxyProtocolHTTP1 ProxyProtocol = "HTTP/1"

	// ProxyProtocolHTTP2 is HTTP/2
	ProxyProtocolHTTP2 ProxyProtocol = "HTTP/2"

	// ProxyProtocolGRPC is gRPC
	ProxyProtocolGRPC ProxyProtocol = "gRPC"

	// ProxyProtocolOpaque is forwarded as an opaque TCP stream
	ProxyProtocolOpaque ProxyProtocol = "opaque"

	// ProxyProtocolTLS is forwarded as a TLS stream without termination
	ProxyProtocolTLS ProxyProtocol = "TLS"
)

// ServerSpec defines the desired state of Server
type ServerSpec struct {
	// PodSelector selects the pods exposing the port
	PodSelector *metav1.LabelSelector `json:"podSelector"`

	// Port is the container port number or name
	Port intstr.IntOrString `json:"port"`

	// +optional
	// +kubebuilder:default=unknown
	// ProxyProtocol is the protocol of the traffic accepted on the port
	ProxyProtocol *ProxyProtocol `json:"proxyProtocol,omitempty"`
}

// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
// +kubebuilder:storageversion
// +kubebuilder:object:root=true
// +kubebuilder:resource:scope=Namespaced,categories=policy,shortName=srv
// +kubebuilder:printcolumn:name="Port",type=string,JSONPath=`.spec.port`
// +kubebuilder:printcolumn:name="Protocol",type=string,JSONPath=`.spec.proxyProtocol`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// Server declares that a port of the selected pods is exposed with a given protocol.
type Server struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	// Spec defines the desired state of Server.
	Spec ServerSpec `json:"spec,omitempty"`
}

// +kubebuilder:object:root=true
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object

// ServerList contains a list of Server
type ServerList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Server `json:"items"`
}
