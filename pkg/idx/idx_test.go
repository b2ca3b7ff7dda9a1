package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gather/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New(idx.KindEvent)

	require.NotEmpty(t, id.String())
	require.Equal(t, idx.KindEvent, id.Kind())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.False(t, id.IsZero())
}

func TestParseKind(t *testing.T) {
	id := idx.New(idx.KindNotification)

	_, err := idx.ParseKind(id.String(), idx.KindNotification)
	require.NoError(t, err)

	_, err = idx.ParseKind(id.String(), idx.KindEvent)
	require.ErrorIs(t, err, idx.ErrInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "evt", "evt_", "_01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", "evt_not-a-ulid", "0991234567"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", s)
	}
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(idx.KindEvent, time.Unix(1, 0).UTC())
	b := idx.NewAt(idx.KindEvent, time.Unix(2, 0).UTC())

	require.Equal(t, -1, idx.Compare(a, b))
	require.Equal(t, 1, idx.Compare(b, a))
	require.Equal(t, 0, idx.Compare(a, a))
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(idx.KindAccount, tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
	require.True(t, idx.ID("garbage").Time().IsZero())
}

func TestMustParse(t *testing.T) {
	id := idx.MustParse("lnk_01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	require.Equal(t, idx.KindLink, id.Kind())

	require.Panics(t, func() { idx.MustParse("nope") })
}
