package cmdctx

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/graph"
	"github.com/hashmap-kz/peaceform/internal/item"
	"github.com/hashmap-kz/peaceform/internal/params"
	"github.com/hashmap-kz/peaceform/internal/resources"
	"github.com/hashmap-kz/peaceform/internal/storage"
	"github.com/hashmap-kz/peaceform/internal/typereg"
)

type fixtureState struct{ N int }

func (s fixtureState) String() string             { return fmt.Sprintf("%d", s.N) }
func (s fixtureState) Equal(o item.State) bool     { v, ok := o.(fixtureState); return ok && v.N == s.N }

type fixtureParams struct{ N int }
type fixturePartial struct{ N *int }
type fixtureData struct{}

var fixtureSetupCalls int

type fixtureItem struct{ id item.ID }

func (f fixtureItem) ID() item.ID { return f.id }
func (f fixtureItem) Setup(ctx context.Context, res *resources.Map) error {
	fixtureSetupCalls++
	return nil
}
func (f fixtureItem) StateExample(p fixtureParams, d fixtureData) fixtureState { return fixtureState{N: p.N} }
func (f fixtureItem) TryStateCurrent(fnCtx item.FnCtx, p fixturePartial, d fixtureData) (*fixtureState, error) {
	s := fixtureState{}
	return &s, nil
}
func (f fixtureItem) StateCurrent(fnCtx item.FnCtx, p fixtureParams, d fixtureData) (fixtureState, error) {
	return fixtureState{}, nil
}
func (f fixtureItem) TryStateGoal(fnCtx item.FnCtx, p fixturePartial, d fixtureData) (*fixtureState, error) {
	s := fixtureState{}
	return &s, nil
}
func (f fixtureItem) StateGoal(fnCtx item.FnCtx, p fixtureParams, d fixtureData) (fixtureState, error) {
	return fixtureState{N: p.N}, nil
}
func (f fixtureItem) StateDiff(p fixturePartial, d fixtureData, a, b fixtureState) (item.StateDiff, error) {
	return nil, nil
}
func (f fixtureItem) StateClean(p fixturePartial, d fixtureData) (fixtureState, error) {
	return fixtureState{}, nil
}
func (f fixtureItem) ApplyCheck(p fixtureParams, d fixtureData, current, target fixtureState, diff item.StateDiff) (item.ApplyCheck, error) {
	return item.NotRequired(), nil
}
func (f fixtureItem) ApplyDry(fnCtx item.FnCtx, p fixtureParams, d fixtureData, current, target fixtureState, diff item.StateDiff) (fixtureState, error) {
	return target, nil
}
func (f fixtureItem) Apply(fnCtx item.FnCtx, p fixtureParams, d fixtureData, current, target fixtureState, diff item.StateDiff) (fixtureState, error) {
	return target, nil
}

func newFixtureGraph() (*graph.Graph, error) {
	g := graph.New()
	id, err := item.NewID("mock_item")
	if err != nil {
		return nil, err
	}
	rt := item.Erase[fixtureParams, fixturePartial, fixtureState, fixtureData](fixtureItem{id: id}, "mock_item", func() fixtureState { return fixtureState{} })
	if err := g.AddItem(rt); err != nil {
		return nil, err
	}
	return g, nil
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	fixtureSetupCalls = 0
	b := NewSpsf()
	b.AppName = "testapp"
	b.WorkspaceDir = t.TempDir()
	b.Storage = storage.NewNativeBackend()
	b.WorkspaceParamsReg = typereg.NewWithUnknowns[string]()
	b.ProfileParamsReg = typereg.NewWithUnknowns[string]()
	b.FlowParamsReg = typereg.NewWithUnknowns[string]()
	b.StateReg = typereg.NewWithUnknowns[string]()
	b.MappingFns = params.NewMappingFnRegistry()
	b.NewGraph = newFixtureGraph
	b.Profile = "dev"
	b.Flow = "deploy"

	specs := params.NewSpecs()
	spec, _ := params.SpecOf("mock_item", reflect.TypeOf(fixtureParams{}))
	spec = spec.WithValue("N", 3)
	specs.Set("mock_item", spec)
	b.ProvidedParamsSpecs = specs
	return b
}

func TestBuildSingleSpsfMaterializesAndSetsUp(t *testing.T) {
	b := newTestBuilder(t)

	cc, err := b.BuildSingle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fixtureSetupCalls)
	assert.Equal(t, resources.PhaseSetUp, cc.Resources.Phase())
	require.NotNil(t, cc.ParamsSpecs)
	require.Equal(t, 1, cc.ParamsSpecs.Len())

	_, ok, err := b.Storage.ReadOpt(cc.Workspace.Dirs.ParamsSpecsPath(cc.Profile, cc.Flow))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildSingleMissingParamsSpecsFailsWithoutStoredOrProvided(t *testing.T) {
	b := newTestBuilder(t)
	b.ProvidedParamsSpecs = nil

	_, err := b.BuildSingle(context.Background())
	require.Error(t, err)
}

func TestBuildMultiOnMultiProfileBuilderRejectsSingleBuild(t *testing.T) {
	b := NewMpsf()
	_, err := b.BuildSingle(context.Background())
	require.Error(t, err)
}
