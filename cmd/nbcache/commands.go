package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"nbcache/internal/cache"
	"nbcache/internal/chunk"
	"nbcache/internal/document"
	"nbcache/internal/render"
	"nbcache/internal/slice"
	"nbcache/pkg/extract"
)

// chunksCmd lists the chunks of a document
var chunksCmd = &cobra.Command{
	Use:   "chunks [prefix]",
	Short: "List the parsed chunks of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, _, err := parsePrefix(args[0])
		if err != nil {
			return err
		}

		for _, c := range parsed.Chunks {
			name := c.Name
			switch {
			case name == "":
				name = "(anonymous)"
			case !c.Referenceable(cfg.UnrefPrefix):
				name += " (unreferenced)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  line %-5d %-30s %d lines\n",
				c.Index, c.StartLine, name, len(c.Lines))
		}
		return nil
	},
}

// sliceCmd prints the reproduction slice for a set of objects
var sliceCmd = &cobra.Command{
	Use:   "slice [prefix] [chunk] [object...]",
	Short: "Show the code needed to reproduce objects as of a chunk",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, _, err := parsePrefix(args[0])
		if err != nil {
			return err
		}

		slicer := slice.NewSlicer(cfg.UnrefPrefix, logger)
		slices, err := slicer.Slice(parsed, args[1], args[2:])
		if err != nil {
			return err
		}
		return printSnippet(cmd, render.New(slices))
	},
}

// extractCmd runs the full pipeline and prints the loaded objects
var extractCmd = &cobra.Command{
	Use:   "extract [prefix] [chunk] [object...]",
	Short: "Load objects from a document's compiled cache",
	Long: `Runs a full extraction: locates the document, compiles it if no cache
exists, loads the requested objects, and prints them as JSON along with the
reconstructed code.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := extract.New(cfg, extract.WithLogger(logger))
		if err != nil {
			return err
		}

		scope := extract.MapScope{}
		res, err := r.Extract(cmd.Context(), extract.Request{
			Prefix:   args[0],
			Chunk:    args[1],
			Objects:  args[2:],
			Flexible: flexible,
			Scope:    scope,
		})
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(scope, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return printSnippet(cmd, res.Snippet)
	},
}

// compileCmd forces a compile of a document
var compileCmd = &cobra.Command{
	Use:   "compile [prefix]",
	Short: "Compile a document to (re)produce its cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := extract.New(cfg, extract.WithLogger(logger))
		if err != nil {
			return err
		}
		path, err := r.Compile(cmd.Context(), args[0], flexible)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cache ready: %s\n", path)
		return nil
	},
}

// cacheCmd lists the chunks present in a document's compiled cache
var cacheCmd = &cobra.Command{
	Use:   "cache [prefix]",
	Short: "List the chunks with cached objects for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locator, err := document.NewLocator(cfg, nil, logger)
		if err != nil {
			return err
		}
		doc, err := locator.Locate(args[0], flexible)
		if err != nil {
			return err
		}
		path, err := locator.EnsureCache(cmd.Context(), doc)
		if err != nil {
			return err
		}

		store, err := cache.OpenSQLite(path, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		chunks, err := store.Chunks(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range chunks {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

// parsePrefix locates a document (without touching its cache) and parses it.
func parsePrefix(prefix string) (*chunk.Parsed, *document.Document, error) {
	locator, err := document.NewLocator(cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	doc, err := locator.Locate(prefix, flexible)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := chunk.NewParser(cfg.UnrefPrefix).Parse(string(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", doc.Path, err)
	}
	return parsed, doc, nil
}

// printSnippet writes the snippet glamour-rendered on a terminal, as raw
// markdown when piped.
func printSnippet(cmd *cobra.Command, s *render.Snippet) error {
	out := cmd.OutOrStdout()
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		rendered, err := s.Terminal(100)
		if err == nil {
			fmt.Fprint(out, rendered)
			return nil
		}
		// Fall through to raw markdown on renderer failure.
	}
	fmt.Fprint(out, ensureTrailingNewline(s.Markdown()))
	return nil
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
