package k8s

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/client-go/tools/cache"
	"k8s.io/utils/ptr"

	policyv1beta3 "github.com/flomesh-io/fsm-policy/pkg/apis/policy/v1beta3"
	"github.com/flomesh-io/fsm-policy/pkg/constants"
)

const testNamespace = "ns-0"

type recordingStore struct {
	applied []interface{}
	deleted []interface{}
}

func (s *recordingStore) Apply(obj interface{}) error {
	s.applied = append(s.applied, obj)
	return nil
}

func (s *recordingStore) Delete(obj interface{}) error {
	s.deleted = append(s.deleted, obj)
	return nil
}

func newServer(name string) *policyv1beta3.Server {
	return &policyv1beta3.Server{
		TypeMeta: metav1.TypeMeta{
			APIVersion: policyv1beta3.SchemeGroupVersion.String(),
			Kind:       constants.ServerKind,
		},
		ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: name},
		Spec: policyv1beta3.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: map[string]string{"app": "web"}},
			Port:          intstr.FromString("http"),
			ProxyProtocol: ptr.To(policyv1beta3.ProxyProtocolHTTP1),
		},
	}
}

func toUnstructured(t *testing.T, obj runtime.Object) *unstructured.Unstructured {
	t.Helper()
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	require.NoError(t, err)
	return &unstructured.Unstructured{Object: content}
}

func TestDecode(t *testing.T) {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: testNamespace, Name: "pod"}}

	testCases := []struct {
		name      string
		key       InformerKey
		obj       func(t *testing.T) interface{}
		expected  interface{}
		expectErr bool
	}{
		{
			name:     "typed objects are passed through",
			key:      InformerKeyPod,
			obj:      func(*testing.T) interface{} { return pod },
			expected: pod,
		},
		{
			name:     "unstructured server",
			key:      InformerKeyServer,
			obj:      func(t *testing.T) interface{} { return toUnstructured(t, newServer("srv")) },
			expected: newServer("srv"),
		},
		{
			name: "unstructured object of an informer without typed resource",
			key:  InformerKeyPod,
			obj: func(t *testing.T) interface{} {
				return toUnstructured(t, pod)
			},
			expectErr: true,
		},
		{
			name: "malformed unstructured server",
			key:  InformerKeyServer,
			obj: func(*testing.T) interface{} {
				return &unstructured.Unstructured{Object: map[string]interface{}{
					"apiVersion": policyv1beta3.SchemeGroupVersion.String(),
					"kind":       constants.ServerKind,
					"metadata":   map[string]interface{}{"namespace": testNamespace, "name": "srv"},
					"spec":       map[string]interface{}{"podSelector": "app=web"},
				}}
			},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := tassert.New(t)

			actual, err := decode(tc.key, tc.obj(t))
			if tc.expectErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Equal(tc.expected, actual)
		})
	}
}

func TestEventHandlers(t *testing.T) {
	assert := tassert.New(t)

	store := &recordingStore{}
	handler := GetEventHandlerFuncs(InformerKeyServer, store)

	u := toUnstructured(t, newServer("srv"))
	handler.OnAdd(u, false)
	handler.OnUpdate(u, u)
	handler.OnDelete(cache.DeletedFinalStateUnknown{Key: testNamespace + "/srv", Obj: u})
	handler.OnDelete(u)

	require.Len(t, store.applied, 2)
	require.Len(t, store.deleted, 2)
	for _, obj := range append(store.applied, store.deleted...) {
		assert.Equal(newServer("srv"), obj)
	}
}

func TestEventHandlersIgnoreUndecodable(t *testing.T) {
	assert := tassert.New(t)

	store := &recordingStore{}
	handler := GetEventHandlerFuncs(InformerKeyAuthorizationPolicy, store)

	bad := &unstructured.Unstructured{Object: map[string]interface{}{
		"metadata": map[string]interface{}{"namespace": testNamespace, "name": "policy"},
		"spec":     map[string]interface{}{"targetRef": "server"},
	}}
	handler.OnAdd(bad, false)
	handler.OnDelete(bad)

	assert.Empty(store.applied)
	assert.Empty(store.deleted)
}

func TestEventTypesFor(t *testing.T) {
	assert := tassert.New(t)

	assert.Equal(podEventTypes, eventTypesFor(InformerKeyPod))
	assert.Equal(serverEventTypes, eventTypesFor(InformerKeyServer))
	assert.Equal(routeEventTypes, eventTypesFor(InformerKeyGatewayAPIHTTPRoute))
	assert.Equal(routeEventTypes, eventTypesFor(InformerKeyGatewayAPIGRPCRoute))
	assert.Equal(routeEventTypes, eventTypesFor(InformerKeyPolicyHTTPRoute))
	assert.Equal(authorizationEventTypes, eventTypesFor(InformerKeyMeshTLSAuthentication))
}
