// Package errcode defines the error codes for error messages and an explanation
// of what the error signifies.
package errcode

import (
	"fmt"

	"github.com/flomesh-io/fsm-policy/pkg/metricsstore"
)

// ErrCode defines the type to represent error codes
type ErrCode int

const (
	// Kind defines the kind for the error code constants
	Kind = "error_code"
)

// Range 1000-1050 is reserved for errors related to application startup or bootstrapping
const (
	// ErrInvalidCLIArgument indicates an invalid CLI argument
	ErrInvalidCLIArgument ErrCode = iota + 1000

	// ErrSettingLogLevel indicates the specified log level could not be set
	ErrSettingLogLevel

	// ErrParsingKubeConfig indicates the kube config could not be loaded
	ErrParsingKubeConfig

	// ErrStartingInformers indicates the informers could not be synced
	ErrStartingInformers
)

// Range 5000-5100 is reserved for errors related to the policy index
const (
	// ErrConvertingRoute indicates a route resource could not be converted into a route binding
	ErrConvertingRoute ErrCode = iota + 5000

	// ErrUnexpectedRouteStatus indicates a persisted route parent status had an unexpected condition
	ErrUnexpectedRouteStatus

	// ErrInvalidServerSelector indicates a Server label selector could not be parsed
	ErrInvalidServerSelector

	// ErrInvalidNetwork indicates a network CIDR could not be parsed
	ErrInvalidNetwork

	// ErrMissingAuthentication indicates an AuthorizationPolicy references an authentication that does not exist
	ErrMissingAuthentication

	// ErrUnknownResource indicates the index was handed a resource of an unsupported type
	ErrUnknownResource

	// ErrDecodingResource indicates an object received from a dynamic informer could not be decoded
	ErrDecodingResource

	// ErrInvalidAuthorizationPolicy indicates an AuthorizationPolicy could not be parsed
	ErrInvalidAuthorizationPolicy

	// ErrInvalidMeshTLSAuthentication indicates a MeshTLSAuthentication could not be parsed
	ErrInvalidMeshTLSAuthentication
)

// Range 5100-5200 is reserved for errors related to route status reconciliation
const (
	// ErrFetchingRoute indicates the route could not be fetched before patching its status
	ErrFetchingRoute ErrCode = iota + 5100

	// ErrPatchingRouteStatus indicates the route status subresource could not be patched
	ErrPatchingRouteStatus
)

// String returns the error code as a string, ex. E1000
func (e ErrCode) String() string {
	return fmt.Sprintf("E%d", e)
}

// GetErrCodeWithMetric increments the ErrCodeCounter metric for the given error code
// Returns the error code as a string
func GetErrCodeWithMetric(e ErrCode) string {
	metricsstore.DefaultMetricsStore.ErrCodeCounter.WithLabelValues(e.String()).Inc()
	return e.String()
}

// ErrCodeMap defines the mapping of error codes to their description.
// Note: error code descriptions cannot contain tabs.
var ErrCodeMap = map[ErrCode]string{
	ErrInvalidCLIArgument: `
An invalid command line argument was passed to the application.
`,

	ErrSettingLogLevel: `
The specified log level could not be set in the system.
`,

	ErrParsingKubeConfig: `
The Kubernetes client configuration could not be loaded.
`,

	ErrStartingInformers: `
The informer caches for the watched resources failed to sync.
`,

	ErrConvertingRoute: `
An HTTPRoute or GRPCRoute could not be converted into a route binding. The route
is treated as absent from the index until it is corrected.
`,

	ErrUnexpectedRouteStatus: `
A parent status written by this controller carried an unexpected condition type
or status. The condition was ignored.
`,

	ErrInvalidServerSelector: `
The pod selector of a Server resource could not be converted into a label
selector. The Server does not select any pod.
`,

	ErrInvalidNetwork: `
A network CIDR in a NetworkAuthentication or in the controller configuration
could not be parsed.
`,

	ErrMissingAuthentication: `
An AuthorizationPolicy references a MeshTLSAuthentication or
NetworkAuthentication that does not exist. The policy is not applied.
`,

	ErrUnknownResource: `
The policy index was handed a resource of a type it does not watch.
`,

	ErrDecodingResource: `
An unstructured object received from a dynamic informer could not be decoded into
its typed policy resource. The event was ignored.
`,

	ErrInvalidAuthorizationPolicy: `
An AuthorizationPolicy has an unsupported target or authentication reference. The
policy is not applied.
`,

	ErrInvalidMeshTLSAuthentication: `
The identities or service accounts of a MeshTLSAuthentication could not be parsed.
Policies requiring it are not applied.
`,

	ErrFetchingRoute: `
The route could not be fetched from the API server prior to a status patch.
`,

	ErrPatchingRouteStatus: `
The status subresource of a route could not be patched.
`,
}
