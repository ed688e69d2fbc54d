package chunk

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# Loading\n" +
	"\n" +
	"Some prose about loading.\n" +
	"\n" +
	"```{r loading}\n" +
	"sce <- readRDS(\"raw.rds\")\n" +
	"```\n" +
	"\n" +
	"```{r, echo=FALSE}\n" +
	"options(width=80)\n" +
	"```\n" +
	"\n" +
	"```{r processing, cache=TRUE}\n" +
	"sce <- logNormCounts(sce)\n" +
	"dec <- modelGeneVar(sce)\n" +
	"```\n" +
	"\n" +
	"```{r unref-debug}\n" +
	"str(dec)\n" +
	"```\n" +
	"\n" +
	"```r\n" +
	"display_only()\n" +
	"```\n"

func TestParse_SampleDocument(t *testing.T) {
	p := NewParser("")
	parsed, err := p.Parse(sampleDoc)
	require.NoError(t, err)

	require.Len(t, parsed.Chunks, 5)

	t.Run("names and order", func(t *testing.T) {
		var names []string
		for _, c := range parsed.Chunks {
			names = append(names, c.Name)
		}
		want := []string{"loading", "", "processing", "unref-debug", ""}
		if diff := cmp.Diff(want, names); diff != "" {
			t.Errorf("chunk names mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("lookup round-trip", func(t *testing.T) {
		for _, c := range parsed.Chunks {
			if !c.Referenceable(DefaultUnrefPrefix) {
				continue
			}
			got, ok := parsed.Lookup(c.Name)
			require.True(t, ok, "chunk %q not in index", c.Name)
			assert.Same(t, c, got)
		}
	})

	t.Run("body lines exclude fences", func(t *testing.T) {
		c, ok := parsed.Lookup("processing")
		require.True(t, ok)
		assert.Equal(t, []string{
			"sce <- logNormCounts(sce)",
			"dec <- modelGeneVar(sce)",
		}, c.Lines)
		assert.Equal(t, 2, c.Index)
	})

	t.Run("unref chunk is parsed but not indexed", func(t *testing.T) {
		_, ok := parsed.Lookup("unref-debug")
		assert.False(t, ok)
	})

	t.Run("anonymous chunks are not indexed", func(t *testing.T) {
		_, ok := parsed.Lookup("")
		assert.False(t, ok)
		assert.Equal(t, []string{"loading", "processing"}, parsed.Names())
	})
}

func TestParse_HeaderVariants(t *testing.T) {
	cases := []struct {
		header string
		name   string
	}{
		{"```{r loading}", "loading"},
		{"```{r loading, echo=FALSE, cache=TRUE}", "loading"},
		{"```{r, echo=FALSE}", ""},
		{"```{r}", ""},
		{"```{r eval=FALSE}", ""},
		{"```r", ""},
		{"```", ""},
		{"````{r deep-fence}", "deep-fence"},
	}

	p := NewParser("")
	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			doc := tc.header + "\nx <- 1\n````\n"
			parsed, err := p.Parse(doc)
			require.NoError(t, err)
			require.Len(t, parsed.Chunks, 1)
			assert.Equal(t, tc.name, parsed.Chunks[0].Name)
		})
	}
}

func TestParse_IndentedFencesAreProse(t *testing.T) {
	doc := "- a list item\n" +
		"  ```{r hidden}\n" +
		"  x <- 1\n" +
		"  ```\n" +
		"```{r real}\n" +
		"y <- 2\n" +
		"```\n"

	parsed, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	require.Len(t, parsed.Chunks, 1)
	assert.Equal(t, "real", parsed.Chunks[0].Name)
}

func TestParse_DuplicateName(t *testing.T) {
	doc := "```{r load}\nx <- 1\n```\n```{r load}\nx <- 2\n```\n"

	_, err := NewParser("").Parse(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateChunkName)

	var dup *DuplicateNameError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "load", dup.Name)
	assert.Equal(t, 1, dup.FirstLine)
	assert.Equal(t, 4, dup.SecondLine)
}

func TestParse_DuplicateAnonymousAllowed(t *testing.T) {
	doc := "```{r}\nx <- 1\n```\n```{r}\ny <- 2\n```\n" +
		"```{r unref-a}\nz <- 1\n```\n```{r unref-a}\nz <- 2\n```\n"

	parsed, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	assert.Len(t, parsed.Chunks, 4)
}

func TestParse_UnterminatedFence(t *testing.T) {
	doc := "```{r load}\nx <- 1\n"

	_, err := NewParser("").Parse(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	var unterminated *UnterminatedFenceError
	require.True(t, errors.As(err, &unterminated))
	assert.Equal(t, "load", unterminated.Name)
	assert.Equal(t, 1, unterminated.OpenLine)
}

func TestParse_LongerClosingFence(t *testing.T) {
	// A closing line with more backticks than the opener still closes.
	doc := "```{r a}\nx <- 1\n````\n"

	parsed, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	require.Len(t, parsed.Chunks, 1)
	assert.Equal(t, []string{"x <- 1"}, parsed.Chunks[0].Lines)
}

func TestParse_ShorterBacktickRunInsideChunk(t *testing.T) {
	// Inside a 4-backtick fence, a 3-backtick line is chunk content.
	doc := "````{r a}\n```\ninner\n```\n````\n"

	parsed, err := NewParser("").Parse(doc)
	require.NoError(t, err)
	require.Len(t, parsed.Chunks, 1)
	assert.Equal(t, []string{"```", "inner", "```"}, parsed.Chunks[0].Lines)
}

func TestParse_CustomUnrefPrefix(t *testing.T) {
	doc := "```{r hidden-a}\nx <- 1\n```\n"

	parsed, err := NewParser("hidden-").Parse(doc)
	require.NoError(t, err)
	_, ok := parsed.Lookup("hidden-a")
	assert.False(t, ok)
}
