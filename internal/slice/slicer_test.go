package slice

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nbcache/internal/chunk"
)

const analysisDoc = "```{r load}\n" +
	"x <- readRDS(\"raw.rds\")\n" +
	"summary(x)\n" +
	"```\n" +
	"```{r proc}\n" +
	"y <- f(x)\n" +
	"plot(y)\n" +
	"```\n" +
	"```{r unref-debug}\n" +
	"z <- g(y)\n" +
	"```\n" +
	"```{r plot}\n" +
	"plotUMAP(y)\n" +
	"```\n"

func parseDoc(t *testing.T, text string) *chunk.Parsed {
	t.Helper()
	parsed, err := chunk.NewParser("").Parse(text)
	require.NoError(t, err)
	return parsed
}

func sliceNames(slices []ChunkSlice) []string {
	var names []string
	for _, s := range slices {
		names = append(names, s.Chunk.Name)
	}
	return names
}

func TestSlice_ReproducesObjectHistory(t *testing.T) {
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	t.Run("y at proc pulls in the x assignment", func(t *testing.T) {
		// y <- f(x) makes x interesting, so load's assignment is shown
		// even though only y was requested.
		slices, err := s.Slice(doc, "proc", []string{"y"})
		require.NoError(t, err)

		assert.Equal(t, []string{"load", "proc"}, sliceNames(slices))
		assert.Equal(t, []string{"x <- readRDS(\"raw.rds\")"}, slices[0].Lines)
		assert.Equal(t, []string{"y <- f(x)"}, slices[1].Lines)
	})

	t.Run("plot chunk assigns nothing and is dropped", func(t *testing.T) {
		// y is never touched by the plot chunk; its state as of plot is
		// still reproducible from load and proc.
		slices, err := s.Slice(doc, "plot", []string{"y"})
		require.NoError(t, err)
		assert.Equal(t, []string{"load", "proc"}, sliceNames(slices))
	})
}

func TestSlice_UnassignedObjectGivesEmptySlice(t *testing.T) {
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "proc", []string{"nonexistent"})
	require.NoError(t, err)
	assert.Empty(t, slices)
}

func TestSlice_UnrefChunksAreInvisible(t *testing.T) {
	// z is assigned only inside unref-debug; no referenceable chunk can
	// ever report it.
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "plot", []string{"z"})
	require.NoError(t, err)
	assert.Empty(t, slices)

	_, err = s.Slice(doc, "unref-debug", []string{"z"})
	assert.ErrorIs(t, err, ErrUnknownChunk)
}

func TestSlice_UnknownChunk(t *testing.T) {
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	_, err := s.Slice(doc, "missing", []string{"x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownChunk)

	var unknown *UnknownChunkError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "missing", unknown.Name)
	assert.Contains(t, unknown.Available, "proc")
}

func TestSlice_Monotonic(t *testing.T) {
	// Growing the object set never drops a previously kept chunk.
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	small, err := s.Slice(doc, "plot", []string{"y"})
	require.NoError(t, err)
	large, err := s.Slice(doc, "plot", []string{"y", "x"})
	require.NoError(t, err)

	kept := make(map[string]bool)
	for _, cs := range large {
		kept[cs.Chunk.Name] = true
	}
	for _, cs := range small {
		assert.True(t, kept[cs.Chunk.Name], "chunk %q lost when object set grew", cs.Chunk.Name)
	}
}

func TestSlice_OrderIsSubsequenceEndingAtTarget(t *testing.T) {
	doc := parseDoc(t, analysisDoc)
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "proc", []string{"x", "y"})
	require.NoError(t, err)

	target, _ := doc.Lookup("proc")
	last := -1
	for _, cs := range slices {
		assert.Greater(t, cs.Chunk.Index, last)
		assert.LessOrEqual(t, cs.Chunk.Index, target.Index)
		last = cs.Chunk.Index
	}
}

func TestSlice_FullMutationHistoryIsKept(t *testing.T) {
	doc := parseDoc(t, "```{r a}\nx <- 1\n```\n```{r b}\nx <- x + 1\n```\n```{r c}\nx <- x * 2\n```\n")
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "c", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sliceNames(slices))
}

func TestSlice_MultiLineStatements(t *testing.T) {
	doc := parseDoc(t, "```{r setup}\n"+
		"sce <- runPCA(sce,\n"+
		"    ncomponents = 25,\n"+
		"    subset_row = hvgs)\n"+
		"print(sce)\n"+
		"```\n")
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "setup", []string{"sce"})
	require.NoError(t, err)
	require.Len(t, slices, 1)

	want := []string{
		"sce <- runPCA(sce,",
		"    ncomponents = 25,",
		"    subset_row = hvgs)",
	}
	if diff := cmp.Diff(want, slices[0].Lines); diff != "" {
		t.Errorf("sliced lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSlice_ChunksPastTargetAreIgnored(t *testing.T) {
	doc := parseDoc(t, "```{r a}\nx <- 1\n```\n```{r b}\nx <- 2\n```\n")
	s := NewSlicer("", nil)

	slices, err := s.Slice(doc, "a", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sliceNames(slices))
}
