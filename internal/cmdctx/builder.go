// Package cmdctx implements the command-context builder: the nine-phase
// pipeline (register types, deserialize stored params, resolve profile
// selection, materialize directories, merge params, serialize them back,
// seed the resource map, merge flow params-specs, and run item setup)
// that produces the CmdCtx a command block executes against. Four scope
// shapes share the same phases — Spnf and Spsf differ from Mpnf/Mpsf only
// in how many profiles they resolve and build for.
package cmdctx

import (
	"context"
	"fmt"

	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/resources"
	"github.com/hashmap-kz/peaceform/internal/storage"
	"github.com/hashmap-kz/peaceform/internal/typereg"
	"github.com/hashmap-kz/peaceform/internal/workspace"
)

// Scope selects which of the four shapes of a Builder builds.
type Scope int

const (
	ScopeSpnf Scope = iota // single profile, no flow
	ScopeSpsf               // single profile, single flow
	ScopeMpnf               // multi profile, no flow
	ScopeMpsf               // multi profile, single flow
)

// GraphFactory constructs a fresh item graph for one command build. It is
// called once per profile being built, since the resource map / graph pair
// is owned per-scope ("A scope object owns its loaded
// parameters and resource map for the duration of a command").
type GraphFactory func() (*graph.Graph, error)

// Builder assembles a CmdCtx (or, for multi-profile scopes, a MultiCmdCtx)
// by running the nine build phases in order.
type Builder struct {
	Scope Scope

	AppName      string
	WorkspaceDir string
	Storage      storage.Backend

	WorkspaceParamsReg *typereg.Registry[string]
	ProfileParamsReg   *typereg.Registry[string]
	FlowParamsReg      *typereg.Registry[string]
	StateReg           *typereg.Registry[string]
	MappingFns         *params.MappingFnRegistry

	NewGraph GraphFactory

	// Profile is used by Spnf/Spsf. If empty and ProfileSelectorKey is set,
	// the profile name is read from workspace params under that key.
	Profile           workspace.Profile
	ProfileSelectorKey string

	// Profiles/ProfileFilter are used by Mpnf/Mpsf: an explicit set, or a
	// filter applied to workspace.DiscoverProfiles.
	Profiles      []workspace.Profile
	ProfileFilter workspace.ProfileFilter

	Flow workspace.FlowID

	ProvidedWorkspaceParams params.Loaded[string]
	ProvidedProfileParams   params.Loaded[string]
	ProvidedFlowParams      params.Loaded[string]
	ProvidedParamsSpecs     *params.Specs
}

func NewSpnf() *Builder { return &Builder{Scope: ScopeSpnf} }
func NewSpsf() *Builder { return &Builder{Scope: ScopeSpsf} }
func NewMpnf() *Builder { return &Builder{Scope: ScopeMpnf} }
func NewMpsf() *Builder { return &Builder{Scope: ScopeMpsf} }

func (b *Builder) hasFlow() bool {
	return b.Scope == ScopeSpsf || b.Scope == ScopeMpsf
}

func (b *Builder) isMulti() bool {
	return b.Scope == ScopeMpnf || b.Scope == ScopeMpsf
}

// Build runs the nine-phase pipeline. Single-profile scopes return a
// *CmdCtx; multi-profile scopes return a *MultiCmdCtx. Callers that know
// their scope statically should prefer BuildSingle/BuildMulti.
func (b *Builder) Build(ctx context.Context) (any, error) {
	if b.isMulti() {
		return b.BuildMulti(ctx)
	}
	return b.BuildSingle(ctx)
}

// BuildSingle runs the pipeline for Spnf/Spsf.
func (b *Builder) BuildSingle(ctx context.Context) (*CmdCtx, error) {
	if b.isMulti() {
		return nil, fmt.Errorf("cmdctx: BuildSingle called on a multi-profile builder")
	}
	ws := workspace.New(b.WorkspaceDir, b.AppName, b.Storage)
	if err := ws.MaterializeBase(); err != nil {
		return nil, err
	}
	if err := ws.Chdir(); err != nil {
		return nil, err
	}

	// Phase 2 (partial) + phase 3: resolve profile selection, reading a
	// key out of workspace params if not explicitly set.
	wsStore := params.NewStore[string](b.WorkspaceParamsReg, perrors.ArtefactWorkspaceParams)
	storedWsParams, err := wsStore.Load(b.Storage, ws.Dirs.WorkspaceParamsPath())
	if err != nil {
		return nil, err
	}
	mergedWsParams := params.MergeProvidedOverStored(storedWsParams, b.ProvidedWorkspaceParams)

	profile := b.Profile
	if profile == "" && b.ProfileSelectorKey != "" {
		v, ok := mergedWsParams.Values[b.ProfileSelectorKey]
		if !ok {
			return nil, &perrors.WorkspaceError{Kind: perrors.WorkspaceFileNotFound, Path: b.ProfileSelectorKey}
		}
		name := fmt.Sprintf("%v", v)
		if sp, ok := v.(*string); ok {
			name = *sp
		}
		profile, err = workspace.NewProfile(name)
		if err != nil {
			return nil, err
		}
	}

	if err := wsStore.Save(b.Storage, ws.Dirs.WorkspaceParamsPath(), mergedWsParams); err != nil {
		return nil, err
	}

	return b.buildForProfile(ctx, ws, profile, mergedWsParams)
}

// BuildMulti runs the pipeline once per profile for Mpnf/Mpsf, performing
// steps 2/5/6 once per profile.
func (b *Builder) BuildMulti(ctx context.Context) (*MultiCmdCtx, error) {
	if !b.isMulti() {
		return nil, fmt.Errorf("cmdctx: BuildMulti called on a single-profile builder")
	}
	ws := workspace.New(b.WorkspaceDir, b.AppName, b.Storage)
	if err := ws.MaterializeBase(); err != nil {
		return nil, err
	}
	if err := ws.Chdir(); err != nil {
		return nil, err
	}

	wsStore := params.NewStore[string](b.WorkspaceParamsReg, perrors.ArtefactWorkspaceParams)
	storedWsParams, err := wsStore.Load(b.Storage, ws.Dirs.WorkspaceParamsPath())
	if err != nil {
		return nil, err
	}
	mergedWsParams := params.MergeProvidedOverStored(storedWsParams, b.ProvidedWorkspaceParams)
	if err := wsStore.Save(b.Storage, ws.Dirs.WorkspaceParamsPath(), mergedWsParams); err != nil {
		return nil, err
	}

	profiles := b.Profiles
	if profiles == nil {
		profiles, err = ws.DiscoverProfiles(b.ProfileFilter)
		if err != nil {
			return nil, err
		}
	}

	out := &MultiCmdCtx{Workspace: ws, Profiles: profiles, PerProfile: make(map[workspace.Profile]*CmdCtx, len(profiles))}
	for _, p := range profiles {
		cc, err := b.buildForProfile(ctx, ws, p, mergedWsParams)
		if err != nil {
			return nil, fmt.Errorf("cmdctx: building context for profile %q: %w", p, err)
		}
		out.PerProfile[p] = cc
	}
	return out, nil
}

// buildForProfile runs phases 4-9 for one profile.
func (b *Builder) buildForProfile(ctx context.Context, ws *workspace.Workspace, profile workspace.Profile, wsParams params.Loaded[string]) (*CmdCtx, error) {
	// Phase 4: materialize directories.
	if err := ws.MaterializeProfile(profile); err != nil {
		return nil, err
	}
	if b.hasFlow() {
		if err := ws.MaterializeFlow(profile, b.Flow); err != nil {
			return nil, err
		}
	}

	// Phase 2/5/6 for profile params.
	profileStore := params.NewStore[string](b.ProfileParamsReg, perrors.ArtefactProfileParams)
	storedProfileParams, err := profileStore.Load(b.Storage, ws.Dirs.ProfileParamsPath(profile))
	if err != nil {
		return nil, err
	}
	mergedProfileParams := params.MergeProvidedOverStored(storedProfileParams, b.ProvidedProfileParams)
	if err := profileStore.Save(b.Storage, ws.Dirs.ProfileParamsPath(profile), mergedProfileParams); err != nil {
		return nil, err
	}

	cc := &CmdCtx{
		Workspace:       ws,
		Profile:         profile,
		HasFlow:         b.hasFlow(),
		Resources:       resources.New(),
		WorkspaceParams: wsParams,
		ProfileParams:   mergedProfileParams,
	}

	// Phase 7 (partial): seed workspace/profile/dirs/storage/app name.
	resources.Insert(cc.Resources, ws)
	resources.Insert(cc.Resources, ws.Dirs)
	resources.Insert(cc.Resources, b.AppName)
	resources.Insert(cc.Resources, b.Storage)
	resources.Insert(cc.Resources, profile)

	if !b.hasFlow() {
		return cc, nil
	}
	cc.Flow = b.Flow
	resources.Insert(cc.Resources, b.Flow)

	// Phase 2/5/6 for flow params.
	flowStore := params.NewStore[string](b.FlowParamsReg, perrors.ArtefactFlowParams)
	storedFlowParams, err := flowStore.Load(b.Storage, ws.Dirs.FlowParamsPath(profile, b.Flow))
	if err != nil {
		return nil, err
	}
	mergedFlowParams := params.MergeProvidedOverStored(storedFlowParams, b.ProvidedFlowParams)
	if err := flowStore.Save(b.Storage, ws.Dirs.FlowParamsPath(profile, b.Flow), mergedFlowParams); err != nil {
		return nil, err
	}
	cc.FlowParams = mergedFlowParams

	// Phase 8: flow graph + params specs.
	g, err := b.NewGraph()
	if err != nil {
		return nil, err
	}
	cc.Graph = g
	for _, id := range g.InsertionOrder() {
		rt, _ := g.Item(id)
		rt.RegisterTypes(b.StateReg)
	}

	specsPath := ws.Dirs.ParamsSpecsPath(profile, b.Flow)
	storedSpecsRaw, hasStored, err := b.Storage.ReadOpt(specsPath)
	if err != nil {
		return nil, err
	}
	var storedSpecs *params.Specs
	if hasStored {
		storedSpecs, err = decodeParamsSpecs(storedSpecsRaw)
		if err != nil {
			return nil, err
		}
	}
	if !hasStored && b.ProvidedParamsSpecs == nil {
		return nil, &perrors.WorkspaceError{Kind: perrors.ItemParamsSpecsFileNotFound, Path: string(b.Flow)}
	}

	insertionOrder := g.InsertionOrder()
	knownIDs := make([]string, len(insertionOrder))
	for i, id := range insertionOrder {
		knownIDs[i] = string(id)
	}
	merged, mismatch := params.MergeSpecs(storedSpecs, b.ProvidedParamsSpecs, knownIDs, b.MappingFns)
	if mismatch != nil {
		return nil, mismatch
	}
	cc.ParamsSpecs = merged

	if err := saveParamsSpecs(b.Storage, specsPath, merged); err != nil {
		return nil, err
	}

	// Phase 9: setup, Empty -> SetUp.
	if err := setupGraph(ctx, g, cc.Resources); err != nil {
		return nil, err
	}
	cc.Resources.MarkSetUp()

	return cc, nil
}
