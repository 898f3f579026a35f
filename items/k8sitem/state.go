package k8sitem

import (
	"fmt"
	"reflect"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hashmap-kz/peaceform/internal/item"
)

// State is this item's State: whether the resource exists
// and, if so, its spec with status/managed-fields stripped — the same
// normalisation internal/apply/apply.go's prepareApplyPlan applies to the
// backup copy it keeps for rollback.
type State struct {
	GVK       string
	Name      string
	Namespace string
	Exists    bool
	Object    *unstructured.Unstructured // nil when !Exists
}

func (s State) String() string {
	id := s.Name
	if s.Namespace != "" {
		id = s.Namespace + "/" + s.Name
	}
	if !s.Exists {
		return fmt.Sprintf("%s %s: absent", s.GVK, id)
	}
	return fmt.Sprintf("%s %s: present", s.GVK, id)
}

func (s State) Equal(other item.State) bool {
	o, ok := other.(State)
	if !ok {
		return false
	}
	if o.Exists != s.Exists || o.GVK != s.GVK || o.Name != s.Name || o.Namespace != s.Namespace {
		return false
	}
	if !s.Exists {
		return true
	}
	return reflect.DeepEqual(s.Object.Object, o.Object.Object)
}

// DiffKind mirrors FileDownloadStateDiff's four variants, generalised from
// content-hash comparison to object-spec comparison.
type DiffKind int

const (
	DiffNoChangeNotExists DiffKind = iota
	DiffNoChangeSync
	DiffChange
	DiffDeleted
)

// Diff is this item's StateDiff.
type Diff struct {
	Kind DiffKind
	GVK  string
	Name string
}

func (d Diff) String() string {
	switch d.Kind {
	case DiffNoChangeNotExists:
		return fmt.Sprintf("%s %s: unchanged (absent)", d.GVK, d.Name)
	case DiffNoChangeSync:
		return fmt.Sprintf("%s %s: unchanged (in sync)", d.GVK, d.Name)
	case DiffChange:
		return fmt.Sprintf("%s %s: spec change", d.GVK, d.Name)
	case DiffDeleted:
		return fmt.Sprintf("%s %s: to be removed", d.GVK, d.Name)
	default:
		return fmt.Sprintf("%s %s: unknown diff", d.GVK, d.Name)
	}
}

func (d Diff) Changed() bool {
	return d.Kind == DiffChange || d.Kind == DiffDeleted
}

// diffStates mirrors fileitem's diffStates: target.Exists is false exactly
// when target came from state_clean.
func diffStates(current, target State) Diff {
	gvk, name := target.GVK, target.Name
	if gvk == "" {
		gvk, name = current.GVK, current.Name
	}
	switch {
	case !target.Exists && !current.Exists:
		return Diff{Kind: DiffNoChangeNotExists, GVK: gvk, Name: name}
	case !target.Exists:
		return Diff{Kind: DiffDeleted, GVK: gvk, Name: name}
	case current.Exists && reflect.DeepEqual(current.Object.Object, target.Object.Object):
		return Diff{Kind: DiffNoChangeSync, GVK: gvk, Name: name}
	default:
		return Diff{Kind: DiffChange, GVK: gvk, Name: name}
	}
}
