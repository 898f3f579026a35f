package cmdblock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashmap-kz/peaceform/internal/orderedmap"
	"github.com/hashmap-kz/peaceform/internal/resources"
)

type intIn int
type intOut int

type doublingBlock struct{ failEmpty bool }

func (b doublingBlock) Name() string { return "double" }
func (b doublingBlock) Exec(ctx context.Context, in intIn) (intOut, ItemErrors, error) {
	errs := orderedmap.New[string, error]()
	if b.failEmpty {
		errs.Set("item-1", assertErr)
	}
	return intOut(in * 2), errs, nil
}

var assertErr = errFixture{}

type errFixture struct{}

func (errFixture) Error() string { return "fixture failure" }

func TestExecutionRunsBlocksInOrderPassingResourceMap(t *testing.T) {
	res := resources.New()
	resources.Insert[intIn](res, 3)

	exec := NewExecution().
		Then("double", Wrap[intIn, intOut](doublingBlock{})).
		Then("double-again", Wrap[intOut, intOut](doubleAgain{}))

	results, err := exec.Run(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, results, 2)

	out, ok := resources.Remove[intOut](res)
	require.True(t, ok)
	assert.Equal(t, intOut(12), out)
}

type doubleAgain struct{}

func (doubleAgain) Name() string { return "double-again" }
func (doubleAgain) Exec(ctx context.Context, in intOut) (intOut, ItemErrors, error) {
	return in * 2, orderedmap.New[string, error](), nil
}

func TestExecutionAbortsOnNonEmptyItemErrors(t *testing.T) {
	res := resources.New()
	resources.Insert[intIn](res, 1)

	var ranSecond bool
	exec := NewExecution().
		Then("double", Wrap[intIn, intOut](doublingBlock{failEmpty: true})).
		Then("marker", func(ctx context.Context, res *resources.Map) (ItemErrors, error) {
			ranSecond = true
			return orderedmap.New[string, error](), nil
		})

	results, err := exec.Run(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Errs.IsEmpty())
	assert.False(t, ranSecond)
}
