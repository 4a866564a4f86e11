// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/ctb2md/internal/convert"
	"github.com/pdiddy/ctb2md/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a .ctb document to Markdown",
	Long: `Convert reads every node of a CherryTree document, extracts the plain
text of each node, and writes one Markdown file with a heading per node.
Embedded images are written to <out-dir>/<image-dir>/<md5>.png and referenced
inline through --link-prefix (default: the image directory).

Re-running a conversion on the same document reproduces the same files.
The same flags work on the root command: ctb2md -d notes.ctb.`,
	Example: `  ctb2md -d notes.ctb -o site
  ctb2md convert -d notes.ctb
  ctb2md convert -d notes.ctb -o site -i assets/img --link-prefix /img --manifest yaml`,
	RunE: runConvert,
}

// convertFlags maps convert flags to their viper keys.
var convertFlags = map[string]string{
	"document":    "convert.document",
	"image-dir":   "convert.image_dir",
	"link-prefix": "convert.link_prefix",
	"out-md":      "convert.output_file",
	"out-dir":     "convert.output_dir",
	"manifest":    "convert.manifest",
	"check":       "convert.check",
	"max-depth":   "convert.max_depth",
}

func init() {
	addConvertFlags(convertCmd.Flags())
	rootCmd.AddCommand(convertCmd)
}

// addConvertFlags registers the conversion flags on f. Both the root
// command and convert carry them, so `ctb2md -d notes.ctb` still works.
func addConvertFlags(f *pflag.FlagSet) {
	f.StringP("document", "d", "", "CherryTree .ctb file (required)")
	f.StringP("image-dir", "i", types.DefaultImageDir, "image directory, relative to --out-dir")
	f.String("link-prefix", "", "path prefix used in Markdown image links (default: --image-dir)")
	f.String("out-md", types.DefaultOutputFile, "output Markdown file name")
	f.StringP("out-dir", "o", types.DefaultOutputDir, "directory for the Markdown file and images")
	f.String("manifest", "", "also write manifest.yaml or manifest.json: yaml or json")
	f.Bool("check", false, "parse the output and warn when its outline differs from the node tree")
	f.Int("max-depth", types.DefaultMaxDepth, "maximum node depth before the tree is rejected")
}

// bindConvertFlags points the convert.* viper keys at the flags of the
// command being run. Viper holds one flag per key, so binding happens at
// run time rather than in init.
func bindConvertFlags(f *pflag.FlagSet) error {
	for flag, key := range convertFlags {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	if err := bindConvertFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg := convertConfig()
	if cfg.Document == "" {
		return fmt.Errorf("--document is required")
	}

	result, err := convert.Run(cmd.Context(), cfg, logger, os.Stdout)
	if err != nil {
		logger.Error("conversion failed", zap.String("document", cfg.Document), zap.Error(err))
		return err
	}

	if n := len(result.Unreachable); n > 0 {
		fmt.Fprintf(os.Stdout, "%d unlinked node(s) skipped: %v\n", n, result.Unreachable)
	}
	if result.Outline != nil {
		fmt.Fprintf(os.Stdout, "outline: %d headings, max level %d, %d image links\n",
			len(result.Outline.Headings), result.Outline.MaxLevel(), len(result.Outline.Images))
	}
	return nil
}

func convertConfig() types.ConvertConfig {
	return types.ConvertConfig{
		Document:   viper.GetString("convert.document"),
		ImageDir:   viper.GetString("convert.image_dir"),
		LinkPrefix: viper.GetString("convert.link_prefix"),
		OutputFile: viper.GetString("convert.output_file"),
		OutputDir:  viper.GetString("convert.output_dir"),
		Manifest:   types.ManifestFormat(viper.GetString("convert.manifest")),
		Check:      viper.GetBool("convert.check"),
		MaxDepth:   viper.GetInt("convert.max_depth"),
	}
}
