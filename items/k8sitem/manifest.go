package k8sitem

import (
	"bytes"
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
)

// decodeManifest parses exactly one YAML/JSON document into an
// unstructured object, the single-resource counterpart of
// internal/apply/apply.go's readManifests (which decodes a whole stream
// into a slice — one k8sitem.Item manages exactly one resource, so the
// graph, not this function, is what fans a multi-document manifest out
// into many items).
func decodeManifest(raw string) (*unstructured.Unstructured, error) {
	stream := utilyaml.NewYAMLOrJSONDecoder(bytes.NewReader([]byte(raw)), 4096)
	obj := &unstructured.Unstructured{}
	if err := stream.Decode(obj); err != nil {
		return nil, fmt.Errorf("k8sitem: decoding manifest: %w", err)
	}
	if len(obj.Object) == 0 {
		return nil, fmt.Errorf("k8sitem: manifest decodes to an empty document")
	}
	return obj, nil
}

// stripMeta removes fields that must never be compared or round-tripped
// through a diff: status, and the server-managed metadata fields.
// Direct port of internal/apply/apply.go's stripMeta.
func stripMeta(o map[string]any) {
	delete(o, "status")
	if m, ok := o["metadata"].(map[string]any); ok {
		for _, k := range []string{"managedFields", "resourceVersion", "uid", "creationTimestamp", "generation", "selfLink"} {
			delete(m, k)
		}
	}
}

// resourceInterfaceFor resolves an object's GVK to a dynamic.ResourceInterface,
// scoping to a namespace when the resource is namespaced and none was set
// explicitly — the same GVK->GVR lookup and namespace defaulting
// internal/apply/apply.go's prepareApplyPlan performs per-manifest.
func resourceInterfaceFor(mapper meta.RESTMapper, dyn dynamic.Interface, u *unstructured.Unstructured, defaultNamespace string) (dynamic.ResourceInterface, error) {
	gvk := u.GroupVersionKind()
	m, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, fmt.Errorf("k8sitem: could not map GVK %v: %w", gvk, err)
	}

	if m.Scope.Name() == meta.RESTScopeNameNamespace {
		if u.GetNamespace() == "" {
			ns := defaultNamespace
			if ns == "" {
				ns = "default"
			}
			u.SetNamespace(ns)
		}
		return dyn.Resource(m.Resource).Namespace(u.GetNamespace()), nil
	}
	return dyn.Resource(m.Resource), nil
}
