package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_AllHasNoClause(t *testing.T) {
	t.Parallel()

	got := Build("release notes", All)
	assert.Equal(t, "release notes", got.Terms)
	assert.True(t, got.IsOrSearch)
}

func TestBuild_FilterAppendsClause(t *testing.T) {
	t.Parallel()

	got := Build("  roadmap ", Presentations)
	assert.Equal(t, "roadmap ext:ppt ext:pptx ext:odp", got.Terms)
	assert.True(t, got.IsOrSearch)
}

func TestBuild_EmptyTerm(t *testing.T) {
	t.Parallel()

	for _, term := range []string{"", "   ", "\t\n"} {
		got := Build(term, Images)
		assert.True(t, got.IsEmpty(), "term %q", term)
		assert.Equal(t, Effective{}, got)
	}
}

func TestFileFilter_Clause(t *testing.T) {
	t.Parallel()

	assert.Empty(t, All.Clause())
	assert.Equal(t, "ext:aac ext:flac ext:m4a ext:mp3 ext:ogg ext:wav", Audio.Clause())
	for _, f := range Filters[1:] {
		assert.NotEmpty(t, f.Clause(), f.String())
		assert.NotEmpty(t, f.Extensions(), f.String())
	}
}

func TestFileFilter_ExtensionsReturnsCopy(t *testing.T) {
	t.Parallel()

	exts := Images.Extensions()
	exts[0] = "mutated"
	assert.NotEqual(t, "mutated", Images.Extensions()[0])
}

func TestParseFileFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want FileFilter
	}{
		{"", All},
		{"all", All},
		{"Images", Images},
		{" code ", Code},
		{"video", Video},
	}
	for _, tt := range tests {
		got, err := ParseFileFilter(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFileFilter("gifs")
	assert.Error(t, err)
}

func TestFileFilter_NextWraps(t *testing.T) {
	t.Parallel()

	f := All
	for range Filters {
		f = f.Next()
	}
	assert.Equal(t, All, f)
	assert.Equal(t, Documents, All.Next())
}

func TestSearch_Effective(t *testing.T) {
	t.Parallel()

	s := Search{Term: "budget", TeamID: "t1"}
	assert.Equal(t, "budget", s.Effective().Terms)

	filtered := s.WithFilter(Spreadsheets)
	assert.Equal(t, "budget ext:xls ext:xlsx ext:ods ext:csv", filtered.Effective().Terms)
	assert.Equal(t, All, s.Filter, "WithFilter must not mutate the receiver")
}
