package params

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hashmap-kz/peaceform/internal/perrors"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

type mockParams struct {
	N int
}

func TestSpecOfDefaultsEveryFieldToStored(t *testing.T) {
	spec, err := SpecOf("mock_item", reflect.TypeOf(mockParams{}))
	require.NoError(t, err)
	require.Equal(t, []string{"N"}, spec.FieldOrder())
	assert.Equal(t, KindStored, spec.Fields["N"].Kind)
}

func TestResolveValueLiteral(t *testing.T) {
	spec, err := SpecOf("mock_item", reflect.TypeOf(mockParams{}))
	require.NoError(t, err)
	spec = spec.WithValue("N", 3)

	res := resources.New()
	vals, err := Resolve(spec, res, "mock_item", "mockParams", NewMappingFnRegistry())
	require.NoError(t, err)
	assert.Equal(t, 3, vals["N"])
}

func TestResolveInMemoryMissingIsFromError(t *testing.T) {
	spec := newSpec("mock_item")
	spec.set("N", InMemory(reflect.TypeOf(int(0))))

	res := resources.New()
	_, err := Resolve(spec, res, "mock_item", "mockParams", NewMappingFnRegistry())
	require.Error(t, err)
	var resolveErr *perrors.ParamsResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, perrors.ResolveFrom, resolveErr.Kind)
}

func TestResolveInMemoryBorrowConflict(t *testing.T) {
	spec := newSpec("mock_item")
	spec.set("N", InMemory(reflect.TypeOf(int(0))))

	res := resources.New()
	resources.Insert(res, 42)
	held := resources.BorrowMut[int](res)
	defer held.Release()

	_, err := Resolve(spec, res, "mock_item", "mockParams", NewMappingFnRegistry())
	require.Error(t, err)
	var resolveErr *perrors.ParamsResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, perrors.ResolveFromBorrowConflict, resolveErr.Kind)
}

// TestMappingFnResolvesSumOfBorrowedArgs realizes scenario S4 of :
// a mapping function summing a uint32 and a uint64 resolves against
// {1u32, 2u64}, and fails naming the missing uint64 type when only the
// uint32 is present.
func TestMappingFnResolvesSumOfBorrowedArgs(t *testing.T) {
	reg := NewMappingFnRegistry()
	reg.Register("sum_u16", func(args []any) (any, bool) {
		a, aok := args[0].(uint32)
		b, bok := args[1].(uint64)
		if !aok || !bok {
			return nil, false
		}
		return uint16(uint64(a) + b), true
	}, uint32(0), uint64(0))

	spec := newSpec("mock_item")
	spec.set("Sum", MappingFn(reflect.TypeOf(uint16(0)), "sum_u16"))

	res := resources.New()
	resources.Insert[uint32](res, 1)
	resources.Insert[uint64](res, 2)

	vals, err := Resolve(spec, res, "mock_item", "mockParams", reg)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), vals["Sum"])
}

func TestMappingFnMissingArgumentFails(t *testing.T) {
	reg := NewMappingFnRegistry()
	reg.Register("sum_u16", func(args []any) (any, bool) {
		return uint16(0), true
	}, uint32(0), uint64(0))

	spec := newSpec("mock_item")
	spec.set("Sum", MappingFn(reflect.TypeOf(uint16(0)), "sum_u16"))

	res := resources.New()
	resources.Insert[uint32](res, 1)

	_, err := Resolve(spec, res, "mock_item", "mockParams", reg)
	require.Error(t, err)
	var resolveErr *perrors.ParamsResolveError
	require.ErrorAs(t, err, &resolveErr)
	assert.Equal(t, perrors.ResolveFromMap, resolveErr.Kind)
	assert.Equal(t, "uint64", resolveErr.ArgType)
}

func TestTryResolveReturnsNilOnAnyUnresolvedField(t *testing.T) {
	spec := newSpec("mock_item")
	spec.set("N", InMemory(reflect.TypeOf(int(0))))

	res := resources.New()
	vals := TryResolve(spec, res, "mock_item", "mockParams", NewMappingFnRegistry())
	assert.Nil(t, vals)
}

// TestMergeSpecsReportsGhostAndMissingItems realizes scenario S3 of
// : a provided spec for an item not in the flow graph and a missing
// spec for a known item both surface in a single ParamsSpecsMismatch.
func TestMergeSpecsReportsGhostAndMissingItems(t *testing.T) {
	const ghost, needed, present = "ghost", "needed", "present"

	provided := NewSpecs()
	provided.Set(ghost, newSpec("mock_item"))
	provided.Set(present, newSpec("mock_item"))

	_, mismatch := MergeSpecs(nil, provided, []string{needed, present}, NewMappingFnRegistry())
	require.NotNil(t, mismatch)

	var sawGhost, sawNeeded bool
	for _, e := range mismatch.Entries {
		if e.ItemID == "ghost" && e.Category == perrors.MismatchProvidedForDroppedItem {
			sawGhost = true
		}
		if e.ItemID == "needed" && e.Category == perrors.MismatchNoParams {
			sawNeeded = true
		}
	}
	assert.True(t, sawGhost, "expected ghost item reported as provided-for-dropped-item")
	assert.True(t, sawNeeded, "expected needed item reported as no-params")
}

func TestMergeSpecsProvidedWinsOverStored(t *testing.T) {
	const id = "mock_item"

	stored := NewSpecs()
	storedSpec := newSpec("mock_item")
	storedSpec.set("N", Value(reflect.TypeOf(0), 1))
	stored.Set(id, storedSpec)

	provided := NewSpecs()
	providedSpec := newSpec("mock_item")
	providedSpec.set("N", Value(reflect.TypeOf(0), 99))
	provided.Set(id, providedSpec)

	merged, mismatch := MergeSpecs(stored, provided, []string{id}, NewMappingFnRegistry())
	require.Nil(t, mismatch)

	spec, ok := merged.Get(id)
	require.True(t, ok)
	assert.Equal(t, 99, spec.Fields["N"].Literal)
}

func TestMergeSpecsUnusableMappingFn(t *testing.T) {
	const id = "mock_item"
	provided := NewSpecs()
	spec := newSpec("mock_item")
	spec.set("N", MappingFn(reflect.TypeOf(0), "not_registered"))
	provided.Set(id, spec)

	_, mismatch := MergeSpecs(nil, provided, []string{id}, NewMappingFnRegistry())
	require.NotNil(t, mismatch)
	require.Len(t, mismatch.Entries, 1)
	assert.Equal(t, perrors.MismatchSpecUnusable, mismatch.Entries[0].Category)
}

func TestBuildValueFromResolvedFields(t *testing.T) {
	v, err := BuildValue(reflect.TypeOf(mockParams{}), map[string]any{"N": 7})
	require.NoError(t, err)
	assert.Equal(t, mockParams{N: 7}, v)
}

type mockPartial struct {
	N *int
}

func TestBuildPartialLeavesMissingFieldsNil(t *testing.T) {
	v, err := BuildPartial(reflect.TypeOf(mockPartial{}), map[string]any{})
	require.NoError(t, err)
	p := v.(mockPartial)
	assert.Nil(t, p.N)
}

func TestBuildPartialPopulatesPresentFields(t *testing.T) {
	v, err := BuildPartial(reflect.TypeOf(mockPartial{}), map[string]any{"N": 5})
	require.NoError(t, err)
	p := v.(mockPartial)
	require.NotNil(t, p.N)
	assert.Equal(t, 5, *p.N)
}

func TestValueSpecYAMLRoundTrip(t *testing.T) {
	spec := newSpec("mock_item")
	spec.set("N", Value(reflect.TypeOf(0), 3))
	spec.set("Other", InMemory(reflect.TypeOf(0)))
	spec.set("Fn", MappingFn(reflect.TypeOf(0), "sum_u16"))
	spec.set("Prev", Stored(reflect.TypeOf(0)))

	raw, err := yaml.Marshal(spec)
	require.NoError(t, err)
	out := &Spec{}
	require.NoError(t, yaml.Unmarshal(raw, out))

	assert.Equal(t, "mock_item", out.TypeName)
	assert.Equal(t, []string{"N", "Other", "Fn", "Prev"}, out.FieldOrder())
	assert.Equal(t, KindValue, out.Fields["N"].Kind)
	assert.Equal(t, 3, out.Fields["N"].Literal)
	assert.Equal(t, KindInMemory, out.Fields["Other"].Kind)
	assert.Equal(t, KindMappingFn, out.Fields["Fn"].Kind)
	assert.Equal(t, "sum_u16", out.Fields["Fn"].FnName)
	assert.Equal(t, KindStored, out.Fields["Prev"].Kind)
}
