package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nbcache/internal/chunk"
	"nbcache/internal/slice"
)

func sampleSlices() []slice.ChunkSlice {
	return []slice.ChunkSlice{
		{
			Chunk: &chunk.Chunk{Name: "load", Index: 0},
			Lines: []string{`x <- readRDS("raw.rds")`},
		},
		{
			Chunk: &chunk.Chunk{Name: "proc", Index: 1},
			Lines: []string{"y <- f(x)"},
		},
	}
}

func TestSnippet_Code(t *testing.T) {
	s := New(sampleSlices())

	want := "#--- load ---#\n" +
		`x <- readRDS("raw.rds")` + "\n" +
		"\n" +
		"#--- proc ---#\n" +
		"y <- f(x)\n"
	assert.Equal(t, want, s.Code())
}

func TestSnippet_Markdown(t *testing.T) {
	s := New(sampleSlices())
	md := s.Markdown()

	assert.True(t, strings.HasPrefix(md, "<details>\n"))
	assert.True(t, strings.HasSuffix(md, "</details>\n"))
	assert.Contains(t, md, "<summary>"+DefaultSummary+"</summary>")
	assert.Contains(t, md, "```r\n#--- load ---#\n")
	assert.Contains(t, md, "y <- f(x)\n```")

	// One fenced block, opened and closed.
	assert.Equal(t, 2, strings.Count(md, "```"))
}

func TestSnippet_Empty(t *testing.T) {
	s := New(nil)
	assert.Empty(t, s.Code())
	assert.NotContains(t, s.Markdown(), "#---")
}

func TestSnippet_CustomSummary(t *testing.T) {
	s := New(sampleSlices())
	s.Summary = "Setup from the previous chapter"
	assert.Contains(t, s.Markdown(), "<summary>Setup from the previous chapter</summary>")
}

func TestSnippet_Terminal(t *testing.T) {
	s := New(sampleSlices())
	out, err := s.Terminal(80)
	require.NoError(t, err)
	assert.Contains(t, out, "load")
}
