package cmdctx

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/resources"
	"github.com/hashmap-kz/peaceform/internal/storage"
	"github.com/hashmap-kz/peaceform/internal/workspace"
)

// CmdCtx is the built command context for a single profile ("a
// scope object owns its loaded parameters and resource map for the
// duration of a command"). Spnf/Spsf builders return one directly; Mpnf/
// Mpsf builders return one per profile inside a MultiCmdCtx.
type CmdCtx struct {
	Workspace *workspace.Workspace
	Profile   workspace.Profile
	Flow      workspace.FlowID
	HasFlow   bool

	Resources *resources.Map
	Graph     *graph.Graph

	ParamsSpecs *params.Specs

	WorkspaceParams params.Loaded[string]
	ProfileParams   params.Loaded[string]
	FlowParams      params.Loaded[string]
}

// MultiCmdCtx is the result of an Mpnf/Mpsf build: one CmdCtx per accessible
// profile.
type MultiCmdCtx struct {
	Workspace  *workspace.Workspace
	Profiles   []workspace.Profile
	PerProfile map[workspace.Profile]*CmdCtx
}

// decodeParamsSpecs reads the ordered `{item_id: Spec}` mapping of
// params_specs.yaml ("ParamsSpecs: ordered mapping ItemId ->
// Params::Spec").
func decodeParamsSpecs(raw []byte) (*params.Specs, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("cmdctx: decoding params_specs.yaml: %w", err)
	}
	node := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		node = doc.Content[0]
	}
	specs := params.NewSpecs()
	if node.Kind != yaml.MappingNode {
		return specs, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		id := node.Content[i].Value
		var s params.Spec
		if err := node.Content[i+1].Decode(&s); err != nil {
			return nil, fmt.Errorf("cmdctx: decoding params spec for item %q: %w", id, err)
		}
		specs.Set(id, &s)
	}
	return specs, nil
}

// saveParamsSpecs writes specs back to path in item-insertion order.
func saveParamsSpecs(backend storage.Backend, path string, specs *params.Specs) error {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range specs.Keys() {
		spec, _ := specs.Get(id)
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(id); err != nil {
			return err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(spec); err != nil {
			return err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	raw, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("cmdctx: encoding params_specs.yaml: %w", err)
	}
	return backend.Write(path, raw)
}
