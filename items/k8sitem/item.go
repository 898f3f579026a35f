package k8sitem

import (
	"context"
	"encoding/json"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/utils/ptr"

	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/progress"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

// TypeName is the tag this item type registers its State under.
const TypeName = "k8s_resource"

// Item is the Kubernetes-resource item, adapted from the old one-shot
// apply flow into the Item contract's six-function lifecycle: one Item
// instance manages exactly one manifest document, and what that flow did
// as a single all-or-nothing batch now happens per item, with the graph
// (internal/graph) and ApplyExecCmdBlock (internal/cmdblocks) providing
// the ordering and aggregate outcome across many items that the old
// plan/rollback step used to.
type Item struct {
	id item.ID
}

// New returns a Kubernetes resource item with the given item id.
func New(id item.ID) *Item { return &Item{id: id} }

// Erase adapts a k8sitem.Item straight to the engine's erased RT.
func Erase(id item.ID) item.RT {
	return item.Erase[Params, Partial, State, *resources.Map](New(id), TypeName, func() State { return State{} })
}

func (it *Item) ID() item.ID { return it.id }

// clientConfig loads a REST config the same way kubectl-style tools do:
// the default kubeconfig loading rules, no overrides. internal/apply/apply.go
// instead took the config from cobra-bound genericclioptions.ConfigFlags;
// this item has no such flag layer of its own, since connection flags are
// a cmd/ concern, so it falls back to the same
// defaults ConfigFlags itself would have used.
func clientConfig() (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Setup lazily builds and inserts the shared Clients value the first time
// any k8sitem.Item in the flow runs — exactly once per command, regardless
// of how many k8s_resource items the flow contains (Setup
// contract: "insert one resource-map value per type declared in D").
func (it *Item) Setup(_ context.Context, res *resources.Map) error {
	if resources.Contains[*Clients](res) {
		return nil
	}
	cfg, err := clientConfig()
	if err != nil {
		return fmt.Errorf("k8sitem: loading kubeconfig: %w", err)
	}
	clients, err := NewClients(cfg)
	if err != nil {
		return fmt.Errorf("k8sitem: building clients: %w", err)
	}
	resources.Insert[*Clients](res, clients)
	return nil
}

func borrowClients(data *resources.Map) (*Clients, func(), error) {
	ref, fail := resources.TryBorrow[*Clients](data)
	if fail != nil {
		return nil, nil, fmt.Errorf("k8sitem: %w", fail)
	}
	return ref.Get(), ref.Release, nil
}

func (it *Item) StateExample(p Params, _ *resources.Map) State {
	obj, err := decodeManifest(p.Manifest)
	if err != nil {
		return State{Exists: true}
	}
	gvk := obj.GroupVersionKind()
	return State{GVK: gvk.String(), Name: obj.GetName(), Namespace: obj.GetNamespace(), Exists: true, Object: obj}
}

func currentState(ctx context.Context, clients *Clients, manifest, defaultNamespace string) (State, error) {
	u, err := decodeManifest(manifest)
	if err != nil {
		return State{}, err
	}
	gvk := u.GroupVersionKind()
	dr, err := resourceInterfaceFor(clients.Mapper, clients.Dynamic, u, defaultNamespace)
	if err != nil {
		return State{}, err
	}

	cur, err := dr.Get(ctx, u.GetName(), metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return State{GVK: gvk.String(), Name: u.GetName(), Namespace: u.GetNamespace(), Exists: false}, nil
		}
		return State{}, fmt.Errorf("k8sitem: getting %s %s/%s: %w", gvk, u.GetNamespace(), u.GetName(), err)
	}
	stripMeta(cur.Object)
	return State{GVK: gvk.String(), Name: cur.GetName(), Namespace: cur.GetNamespace(), Exists: true, Object: cur}, nil
}

func (it *Item) TryStateCurrent(fnCtx item.FnCtx, pp Partial, data *resources.Map) (*State, error) {
	if pp.Manifest == nil {
		return nil, nil
	}
	clients, release, err := borrowClients(data)
	if err != nil {
		return nil, nil //nolint:nilerr // best-effort: no clients yet means "not discoverable", not an error
	}
	defer release()

	ns := ""
	if pp.DefaultNamespace != nil {
		ns = *pp.DefaultNamespace
	}
	s, err := currentState(fnCtx.Ctx, clients, *pp.Manifest, ns)
	if err != nil {
		return nil, nil //nolint:nilerr // try_state_current is best-effort
	}
	return &s, nil
}

func (it *Item) StateCurrent(fnCtx item.FnCtx, p Params, data *resources.Map) (State, error) {
	clients, release, err := borrowClients(data)
	if err != nil {
		return State{}, err
	}
	defer release()
	return currentState(fnCtx.Ctx, clients, p.Manifest, p.DefaultNamespace)
}

func (it *Item) TryStateGoal(_ item.FnCtx, pp Partial, _ *resources.Map) (*State, error) {
	if pp.Manifest == nil {
		return nil, nil
	}
	obj, err := decodeManifest(*pp.Manifest)
	if err != nil {
		return nil, nil //nolint:nilerr // best-effort
	}
	if pp.DefaultNamespace != nil && obj.GetNamespace() == "" {
		obj.SetNamespace(*pp.DefaultNamespace)
	}
	gvk := obj.GroupVersionKind()
	s := State{GVK: gvk.String(), Name: obj.GetName(), Namespace: obj.GetNamespace(), Exists: true, Object: obj}
	return &s, nil
}

func (it *Item) StateGoal(_ item.FnCtx, p Params, _ *resources.Map) (State, error) {
	obj, err := decodeManifest(p.Manifest)
	if err != nil {
		return State{}, err
	}
	if obj.GetNamespace() == "" && p.DefaultNamespace != "" {
		obj.SetNamespace(p.DefaultNamespace)
	}
	gvk := obj.GroupVersionKind()
	return State{GVK: gvk.String(), Name: obj.GetName(), Namespace: obj.GetNamespace(), Exists: true, Object: obj}, nil
}

func (it *Item) StateDiff(_ Partial, _ *resources.Map, a, b State) (item.StateDiff, error) {
	return diffStates(a, b), nil
}

func (it *Item) StateClean(pp Partial, _ *resources.Map) (State, error) {
	if pp.Manifest == nil {
		return State{Exists: false}, nil
	}
	obj, err := decodeManifest(*pp.Manifest)
	if err != nil {
		return State{Exists: false}, nil //nolint:nilerr // state_clean never fails on an unparsable manifest
	}
	gvk := obj.GroupVersionKind()
	return State{GVK: gvk.String(), Name: obj.GetName(), Namespace: obj.GetNamespace(), Exists: false}, nil
}

func (it *Item) ApplyCheck(_ Params, _ *resources.Map, _, _ State, diff item.StateDiff) (item.ApplyCheck, error) {
	d, ok := diff.(Diff)
	if !ok {
		return item.ApplyCheck{}, fmt.Errorf("k8sitem: apply_check: unexpected diff type %T", diff)
	}
	if !d.Changed() {
		return item.NotRequired(), nil
	}
	return item.Required(progress.Limit{Kind: progress.LimitUnknown}), nil
}

// ApplyDry validates the patch against the API server with Kubernetes'
// own server-side-apply dry run, rather than skipping the network
// entirely — closer to "must not mutate external state" than a pure local
// stub, and exercises the same Patch call path as Apply.
func (it *Item) ApplyDry(fnCtx item.FnCtx, p Params, data *resources.Map, _, target State, diff item.StateDiff) (State, error) {
	d, ok := diff.(Diff)
	if !ok {
		return State{}, fmt.Errorf("k8sitem: apply_dry: unexpected diff type %T", diff)
	}
	if d.Kind == DiffDeleted {
		return target, nil
	}

	clients, release, err := borrowClients(data)
	if err != nil {
		return State{}, err
	}
	defer release()

	dr, objJSON, err := preparePatch(clients, target)
	if err != nil {
		return State{}, err
	}
	fnCtx.Progress.Tick("validating (dry run)")
	_, err = dr.Patch(fnCtx.Ctx, target.Object.GetName(), types.ApplyPatchType, objJSON, metav1.PatchOptions{
		FieldManager: "peaceform",
		Force:        ptr.To(true),
		DryRun:       []string{metav1.DryRunAll},
	})
	if err != nil {
		return State{}, fmt.Errorf("k8sitem: dry-run patch: %w", err)
	}
	return target, nil
}

func preparePatch(clients *Clients, target State) (dynamic.ResourceInterface, []byte, error) {
	dr, err := resourceInterfaceFor(clients.Mapper, clients.Dynamic, target.Object, target.Namespace)
	if err != nil {
		return nil, nil, err
	}
	objJSON, err := json.Marshal(target.Object)
	if err != nil {
		return nil, nil, fmt.Errorf("k8sitem: marshalling target object: %w", err)
	}
	return dr, objJSON, nil
}

// Apply performs the server-side-apply Patch (or Delete, for DiffDeleted) —
// the same call internal/apply/apply.go's applyPlanned made per plan item —
// and, if Params.WaitReady is set, waits for kstatus Current via waitReady.
func (it *Item) Apply(fnCtx item.FnCtx, p Params, data *resources.Map, current, target State, diff item.StateDiff) (State, error) {
	d, ok := diff.(Diff)
	if !ok {
		return State{}, fmt.Errorf("k8sitem: apply: unexpected diff type %T", diff)
	}

	clients, release, err := borrowClients(data)
	if err != nil {
		return State{}, err
	}
	defer release()

	switch d.Kind {
	case DiffDeleted:
		fnCtx.Progress.Tick("deleting resource")
		dr, err := resourceInterfaceFor(clients.Mapper, clients.Dynamic, current.Object, current.Namespace)
		if err != nil {
			return State{}, err
		}
		if err := dr.Delete(fnCtx.Ctx, current.Name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
			return State{}, fmt.Errorf("k8sitem: deleting %s %s/%s: %w", current.GVK, current.Namespace, current.Name, err)
		}
		return target, nil

	case DiffChange:
		fnCtx.Progress.Tick("applying resource")
		dr, objJSON, err := preparePatch(clients, target)
		if err != nil {
			return State{}, err
		}
		patched, err := dr.Patch(fnCtx.Ctx, target.Object.GetName(), types.ApplyPatchType, objJSON, metav1.PatchOptions{
			FieldManager: "peaceform",
			Force:        ptr.To(true),
		})
		if err != nil {
			return State{}, fmt.Errorf("k8sitem: patching %s %s/%s: %w", target.GVK, target.Namespace, target.Name, err)
		}
		stripMeta(patched.Object)
		applied := State{GVK: target.GVK, Name: patched.GetName(), Namespace: patched.GetNamespace(), Exists: true, Object: patched}

		if p.WaitReady {
			if err := waitReady(fnCtx, clients, applied); err != nil {
				return applied, err
			}
		}
		return applied, nil

	default:
		return State{}, fmt.Errorf("k8sitem: apply called with no-change diff %v", d)
	}
}
