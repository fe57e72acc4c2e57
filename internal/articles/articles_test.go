package articles

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsSiteArticles(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 4)

	slugs := make([]string, 0, len(list))
	for _, a := range list {
		slugs = append(slugs, a.Slug)
	}
	require.Equal(t, []string{"geodeziya", "toposemka", "bim-3d", "vynos-granits"}, slugs)

	bim, err := s.Get("bim-3d")
	require.NoError(t, err)
	require.Equal(t, "BIM: Зачем платить за 3D?", bim.Title)
	require.Equal(t, "Scan-to-BIM", bim.Focus)
	require.Len(t, bim.Images, 2)
	require.NotContains(t, bim.Content, bim.Title)
	require.NotContains(t, bim.Content, bim.Subtitle)
	require.NotEmpty(t, bim.Content)
}

func TestGet_UnknownSlug(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)

	_, err = s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewStore_OrdersAndStrips(t *testing.T) {
	fsys := fstest.MapFS{
		"b.md": {Data: []byte("---\norder: \"02\"\nslug: second\ntitle: Second\n---\nSecond\n\nSub\n\nBody two.\n")},
		"a.md": {Data: []byte("---\norder: \"01\"\ntitle: First\nmeta:\n  - one\n---\r\nFirst\r\n\r\nSub\r\n\r\nPara one.\r\n\r\n\r\nPara two.\r\n")},
	}

	s, err := NewStore(fsys)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Slug)
	require.Equal(t, "second", list[1].Slug)

	first, err := s.Get("a")
	require.NoError(t, err)
	require.Equal(t, []string{"one"}, first.Meta)
	require.Equal(t, "Para one.\n\nPara two.", first.Content)
}

func TestNewStore_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"unterminated front matter", fstest.MapFS{"x.md": {Data: []byte("---\ntitle: x\n")}}},
		{"bad yaml", fstest.MapFS{"x.md": {Data: []byte("---\ntitle: [\n---\nbody")}}},
		{"duplicate slug", fstest.MapFS{
			"x.md": {Data: []byte("---\nslug: same\n---\n")},
			"y.md": {Data: []byte("---\nslug: same\n---\n")},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStore(tc.fsys)
			require.Error(t, err)
		})
	}
}

func TestStripIntroBlocks(t *testing.T) {
	require.Equal(t, "", stripIntroBlocks("Title\n\nSubtitle"))
	require.Equal(t, "c\n\nd", stripIntroBlocks("\n\na\n\nb\n\nc\n\n\n\nd\n"))
}
