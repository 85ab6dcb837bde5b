package tracker

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestAllocFree(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.Alloc(IntermediateStrings)
	tr.AllocN(LocalStrings, 3)
	tr.Free(IntermediateStrings)
	tr.FreeN(LocalStrings, 2)
	require.Equal(t, 0, tr.Count(IntermediateStrings))
	require.Equal(t, 1, tr.Count(LocalStrings))
	require.Equal(t, 0, tr.Errors())
}

func TestExpectFoldsResidual(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.AllocN(LocalArrays, 2)
	err := tr.Expect(LocalArrays, 0)
	require.Error(t, err)

	var residual *ResidualError
	require.True(t, errors.As(err, &residual))
	require.Equal(t, LocalArrays, residual.Category)
	require.Equal(t, 2, residual.Got)

	require.Equal(t, 2, tr.Errors())
	require.Equal(t, 0, tr.Count(LocalArrays))
	require.NoError(t, tr.Expect(LocalArrays, 0))
}

func TestExpectNegativeResidual(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.Free(UserStrings)
	require.Error(t, tr.Expect(UserStrings, 0))
	require.Equal(t, 1, tr.Errors())
}

func TestCheckAggregates(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.Alloc(IntermediateStrings)
	tr.Alloc(LocalStrings)
	err := tr.Check(IntermediateStrings, LocalStrings, LocalArrays)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
	require.Equal(t, 2, tr.Errors())

	require.NoError(t, tr.Check(IntermediateStrings, LocalStrings))
}

func TestCheckAtSnapshot(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.AllocN(LocalStrings, 2)
	tr.Alloc(LocalArrays)
	snap := tr.Snapshot()

	tr.Alloc(LocalStrings)
	tr.Alloc(LocalArrays)
	tr.Free(LocalArrays)
	err := tr.CheckAt(snap, LocalStrings, LocalArrays)
	require.Error(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 1)
	require.Equal(t, 1, tr.Errors())
	require.Equal(t, 2, tr.Count(LocalStrings))
	require.NoError(t, tr.CheckAt(snap, LocalStrings, LocalArrays))
}

func TestSnapshotMap(t *testing.T) {
	tr := New(zerolog.Nop())
	tr.Alloc(IdentifierNames)
	m := tr.Snapshot().Map()
	require.Equal(t, 1, m["identifierNames"])
	require.Len(t, m, int(NumCategories))
	tr.Reset()
	require.Equal(t, Snapshot{}, tr.Snapshot())
}
