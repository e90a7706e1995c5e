package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Order{OrderID: "1", Item: "burger"}.Validate())

	require.ErrorIs(t, Order{OrderID: "", Item: "burger"}.Validate(), ErrMissingField)
	require.ErrorIs(t, Order{OrderID: "1", Item: ""}.Validate(), ErrMissingField)
	require.ErrorIs(t, Order{OrderID: "   ", Item: "burger"}.Validate(), ErrMissingField)
	require.ErrorIs(t, Order{OrderID: "1", Item: "\t\n"}.Validate(), ErrMissingField)
}

func TestReasonFor(t *testing.T) {
	require.Equal(t, ReasonMalformedEvent, ReasonFor(ErrMalformedEvent))
	require.Equal(t, ReasonMissingField, ReasonFor(ErrMissingField))
	require.Equal(t, ReasonStoreUnavailable, ReasonFor(ErrStoreUnavailable))
	require.Equal(t, ReasonStoreUnavailable, ReasonFor(errors.New("connection refused")))
}

func TestIsPermanent(t *testing.T) {
	require.True(t, IsPermanent(ErrMalformedEvent))
	require.True(t, IsPermanent(ErrMissingField))
	require.False(t, IsPermanent(ErrStoreUnavailable))
	require.False(t, IsPermanent(errors.New("timeout")))
}
