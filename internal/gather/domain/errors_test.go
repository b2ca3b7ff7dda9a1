package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/stretchr/testify/require"
)

func TestConflictErrorIs(t *testing.T) {
	var err error = &domain.ConflictError{EventID: "evt_1", Expected: 2, Current: 3}
	wrapped := fmt.Errorf("commit: %w", err)

	require.ErrorIs(t, wrapped, domain.ErrConflict)

	var ce *domain.ConflictError
	require.True(t, errors.As(wrapped, &ce))
	require.Equal(t, int64(3), ce.Current)
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := &domain.NetworkError{Op: "read event", Err: cause}

	require.ErrorIs(t, err, domain.ErrUnavailable)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "read event: disk I/O error", err.Error())
}

func TestParseRsvpStatus(t *testing.T) {
	st, err := domain.ParseRsvpStatus("maybe")
	require.NoError(t, err)
	require.True(t, st.IsResponse())
	require.True(t, st.GrantsVisibility())

	require.False(t, domain.StatusDeclined.GrantsVisibility())
	require.False(t, domain.StatusPending.IsResponse())

	_, err = domain.ParseRsvpStatus("going")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}
