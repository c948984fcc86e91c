package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mindmaps/diagram"
	"mindmaps/export"
	"mindmaps/markdown"
	"mindmaps/patch"
	"mindmaps/validation"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored maps",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			maps, err := s.store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(maps) == 0 {
				Subtle.Println("  No maps in " + s.store.Dir())
				return nil
			}

			rows := make([][]string, 0, len(maps))
			for _, m := range maps {
				rows = append(rows, []string{
					m.ID,
					m.Title,
					strconv.Itoa(m.Nodes),
					strconv.Itoa(m.Connections),
					m.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table([]string{"ID", "TITLE", "NODES", "CONNECTIONS", "UPDATED"}, rows)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		format string
		output string
		note   string
		block  int
	)

	var names []string
	for _, f := range export.GetAvailableFormats() {
		names = append(names, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export <map-id>",
		Short: "Export a map to another format",
		Long: "Export a stored map. Formats: " + strings.Join(names, ", ") + `.

  mindmaps export 7c1f… --format mermaid
  mindmaps export 7c1f… --format svg -o energia.svg
  mindmaps export 7c1f… --format mermaid --markdown notas.md --block 2

With --markdown the map is written into a fenced block of the note: block N
is replaced, or a new block is appended when --block is 0.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			exp, err := export.NewExporter(f)
			if err != nil {
				return err
			}

			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			m, err := s.store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}
			out, err := exp.Export(m)
			if err != nil {
				return fmt.Errorf("exporting to %s: %w", exp.GetFormatName(), err)
			}
			if note != "" {
				if err := exportIntoNote(note, block, string(f), out); err != nil {
					return err
				}
				fmt.Printf("  %s %s → %s\n", statusIcon(true), m.Title, note)
				return nil
			}
			if err := writeOutput(output, out); err != nil {
				return err
			}
			if output != "" {
				fmt.Printf("  %s %s → %s\n", statusIcon(true), m.Title, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&note, "markdown", "", "Write into a fenced block of this markdown file")
	cmd.Flags().IntVar(&block, "block", 0, "Block to replace (1-based, 0 appends)")
	return cmd
}

func exportIntoNote(path string, block int, format, content string) error {
	switch format {
	case "mermaid", "graphviz", "json":
	default:
		return fmt.Errorf("format %s cannot be embedded in markdown", format)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	doc := string(data)

	if block == 0 {
		doc = markdown.Append(doc, markdown.Fence(format), content)
	} else {
		b, err := pickBlock(doc, block)
		if err != nil {
			return err
		}
		if b.Format() != format {
			return fmt.Errorf("block %d holds %s, not %s", block, b.Lang, format)
		}
		if doc, err = markdown.Replace(doc, b, content); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}

// pickBlock returns the 1-based block n of doc. With n == 0 the document
// must hold exactly one block.
func pickBlock(doc string, n int) (markdown.Block, error) {
	blocks := markdown.Blocks(doc)
	switch {
	case len(blocks) == 0:
		return markdown.Block{}, fmt.Errorf("no map blocks found")
	case n == 0 && len(blocks) == 1:
		return blocks[0], nil
	case n == 0:
		var sb strings.Builder
		for i, b := range blocks {
			sb.WriteString("\n  " + b.Describe(i))
		}
		return markdown.Block{}, fmt.Errorf("%d map blocks found, choose one with --block:%s", len(blocks), sb.String())
	case n < 0 || n > len(blocks):
		return markdown.Block{}, fmt.Errorf("block %d out of range (1-%d)", n, len(blocks))
	}
	return blocks[n-1], nil
}

func importCmd() *cobra.Command {
	var (
		format string
		block  int
	)

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a map from a file",
		Long: `Create a new map from an exported mind map file, a Mermaid flowchart or
a Graphviz DOT graph. The format is detected unless --format is given.
Nodes without coordinates are laid out around their neighbours.

A markdown file (.md) is scanned for mermaid, dot or mindmap blocks; pick
one with --block when there are several.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			format := format
			if ext := strings.ToLower(filepath.Ext(args[0])); ext == ".md" || ext == ".markdown" {
				b, err := pickBlock(string(data), block)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				data = []byte(b.Content)
				if format == "" {
					format = b.Format()
				}
			}

			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			reg := s.importer()
			var m *diagram.MindMap
			if format == "" {
				m, err = reg.Import(string(data))
			} else {
				m, err = reg.ImportWithFormat(string(data), format)
			}
			if s.metrics != nil {
				s.metrics.Import(format, err)
			}
			if err != nil {
				return err
			}
			if err := s.store.Save(cmd.Context(), m); err != nil {
				return err
			}

			fmt.Printf("  %s %s  %s\n", statusIcon(true), Brand.Sprint(m.Title), Subtle.Sprint(m.ID))
			fmt.Printf("    %d nodes, %d connections\n", len(m.Nodes), len(m.Connections))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (json, mermaid, graphviz)")
	cmd.Flags().IntVar(&block, "block", 0, "Markdown block to import (1-based)")
	return cmd
}

func patchCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "patch <map-id> <patch-file|->",
		Short: "Apply structural operations to a map",
		Long: `Apply a list of add/remove/replace operations on /nodes and
/connections. Operations that cannot be applied are reported and skipped.
With --dry-run nothing is saved; the net change is printed as operations.

  echo '[{"op":"replace","path":"/nodes/0/title","value":"Sol"}]' | mindmaps patch 7c1f… -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[1])
			if err != nil {
				return err
			}
			ops, err := patch.Parse(data)
			if err != nil {
				return err
			}

			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			if dryRun {
				m, err := s.store.Load(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("loading %s: %w", args[0], err)
				}
				res := patch.Apply(m.Graph(), ops)
				printOutcomes(res)
				changes := patch.Diff(m.Graph(), res.Graph)
				if changes == nil {
					changes = []patch.Operation{}
				}
				out, err := json.MarshalIndent(changes, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println(string(out))
				return nil
			}

			e, err := s.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			res, _ := e.ApplyPatch(ops)
			e.Flush(cmd.Context())
			printOutcomes(res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the outcome without saving")
	return cmd
}

func printOutcomes(res patch.Result) {
	for _, o := range res.Outcomes {
		line := fmt.Sprintf("  %s %-7s %s", statusIcon(o.Applied), o.Op, o.Path)
		if o.Reason != "" {
			line += "  " + Subtle.Sprint(o.Reason)
		}
		fmt.Println(line)
	}
	fmt.Printf("\n  %d applied, %d skipped\n", res.Applied(), len(res.Skipped()))
}

func validateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <map-id>",
		Short: "Check a map for structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newStack()
			if err != nil {
				return err
			}
			defer s.close(cmd.Context())

			m, err := s.store.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}

			v := validation.NewGraphValidator()
			v.SetStrictMode(strict)
			issues := v.Validate(m.Graph())
			if len(issues) == 0 {
				fmt.Printf("  %s %s is valid\n", statusIcon(true), m.Title)
				return nil
			}

			for _, issue := range issues {
				icon := Warn.Sprint("⚠")
				if issue.Severity == validation.Error {
					icon = statusIcon(false)
				}
				fmt.Printf("  %s %s\n", icon, issue.String())
			}
			if validation.HasErrors(issues) {
				return fmt.Errorf("%s has structural errors", m.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}
