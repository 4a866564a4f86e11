// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ctb2md/internal/convert"
	"github.com/pdiddy/ctb2md/internal/ctb"
	"github.com/pdiddy/ctb2md/internal/tree"
	"github.com/pdiddy/ctb2md/pkg/types"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the node hierarchy of a .ctb document",
	Long: `Tree loads a CherryTree document and prints its node hierarchy in
render order, with the number of images attached to each node. Nothing is
written to disk.`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringP("document", "d", "", "CherryTree .ctb file (required)")
	treeCmd.Flags().Bool("json", false, "output the hierarchy as JSON")
	_ = treeCmd.MarkFlagRequired("document")

	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("document")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := ctb.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	forest, err := tree.Assemble(records.Nodes, records.Images, records.Links)
	if err != nil {
		return err
	}

	m := convert.BuildManifest(types.ConvertConfig{Document: path}, forest)
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(m.Nodes)
	}
	printTree(os.Stdout, m.Nodes)
	if len(forest.Unreachable) > 0 {
		fmt.Fprintf(os.Stdout, "\nunlinked: %v\n", forest.Unreachable)
	}
	return nil
}

func printTree(w io.Writer, entries []convert.ManifestEntry) {
	fmt.Fprintf(w, "%-6s  %-50s  %s\n", "ID", "Name", "Images")
	fmt.Fprintln(w, strings.Repeat("-", 66))

	stack := make([]convert.ManifestEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		stack = append(stack, entries[i])
	}
	count := 0
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		name := []rune(strings.Repeat("  ", e.Depth-1) + e.Name)
		if len(name) > 50 {
			name = append(name[:47:47], []rune("...")...)
		}
		fmt.Fprintf(w, "%-6d  %-50s  %d\n", e.ID, string(name), len(e.Images))

		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, e.Children[i])
		}
	}
	fmt.Fprintf(w, "\n%d nodes\n", count)
}
