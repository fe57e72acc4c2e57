package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dzeya/mensor-construction-4/internal/models"
)

func TestStore_AppendKeepsOrder(t *testing.T) {
	s := New(models.Turn{Role: models.RoleModel, Text: "greeting"})
	s.Append(models.Turn{Role: models.RoleUser, Text: "q1"})
	s.Append(models.Turn{Role: models.RoleModel, Text: "a1"})

	require.Equal(t, 3, s.Len())
	require.Equal(t, []models.Turn{
		{Role: models.RoleModel, Text: "greeting"},
		{Role: models.RoleUser, Text: "q1"},
		{Role: models.RoleModel, Text: "a1"},
	}, s.Snapshot())
}

func TestStore_ExtendLast(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.ExtendLast("x"), ErrNotExtendable)

	s.Append(models.Turn{Role: models.RoleUser, Text: "q"})
	require.ErrorIs(t, s.ExtendLast("x"), ErrNotExtendable)

	s.Append(models.Turn{Role: models.RoleModel})
	require.NoError(t, s.ExtendLast("Hel"))
	require.NoError(t, s.ExtendLast("lo"))

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, "Hello", last.Text)
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	s := New(models.Turn{Role: models.RoleModel, Text: "a"})
	snap := s.Snapshot()
	snap[0].Text = "mutated"

	require.NoError(t, s.ExtendLast("b"))
	require.Equal(t, "mutated", snap[0].Text)
	require.Equal(t, "ab", s.Snapshot()[0].Text)
}

func TestStore_LastOnEmpty(t *testing.T) {
	_, ok := New().Last()
	require.False(t, ok)
}
