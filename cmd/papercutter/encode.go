package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/encode"
)

var (
	encodeBaseDir string
	encodeOut     string
)

var encodeCmd = &cobra.Command{
	Use:   "encode <records.json>",
	Short: "Embed referenced images as Base64 in a record file",
	Long: `Replace relative image paths in a question record file with the Base64
content of the referenced files. Inline markdown and HTML image
references become data URIs. External URLs and already-embedded images
are left untouched.

Examples:
  papercutter encode output/paper.json
  papercutter encode --base-dir scans/ --out embedded.json paper.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		baseDir := encodeBaseDir
		if baseDir == "" {
			baseDir = filepath.Dir(path)
		}
		outPath := encodeOut
		if outPath == "" {
			outPath = path
		}

		if err := encode.EncodeFile(path, baseDir, outPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	},
}

func init() {
	encodeCmd.Flags().StringVar(&encodeBaseDir, "base-dir", "", "Directory image paths are relative to (default: record file directory)")
	encodeCmd.Flags().StringVar(&encodeOut, "out", "", "Output path (default: in place)")

	rootCmd.AddCommand(encodeCmd)
}
