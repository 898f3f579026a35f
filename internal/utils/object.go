// Package utils holds small manifest-stream helpers shared by the CLI's
// input parsing, factored out of internal/apply/apply.go's inline
// readManifests so a lenient variant could exist alongside the strict one.
package utils

import (
	"errors"
	"io"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// ReadObjects decodes a multi-document YAML/JSON stream into unstructured
// objects, silently dropping any document that decodes to an empty object
// or is missing apiVersion/kind — a malformed manifest in a larger batch
// should not abort the whole batch, unlike internal/apply/apply.go's
// readManifests, which surfaces every decode error.
func ReadObjects(r io.Reader) ([]*unstructured.Unstructured, error) {
	var out []*unstructured.Unstructured
	stream := utilyaml.NewYAMLOrJSONDecoder(r, 4096)
	for {
		obj := &unstructured.Unstructured{}
		if err := stream.Decode(obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if len(obj.Object) == 0 {
			continue
		}
		if obj.GetAPIVersion() == "" || obj.GetKind() == "" {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}
