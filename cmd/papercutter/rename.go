package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

var (
	renamePrefix string
	renameStart  int
	renameDigits int
)

var renameCmd = &cobra.Command{
	Use:   "rename <dir>",
	Short: "Rename images in a directory to sequential names",
	Long: `Rename every image in a directory to a stable zero-padded sequential
name (0001.jpg, 0002.png, ...), keeping the original extension. Files
are processed in sorted order so reruns are stable.

Examples:
  papercutter rename scans/                 # 0001.jpg, 0002.jpg, ...
  papercutter rename --prefix page scans/   # page_0001.jpg, ...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := questions.RenameImages(args[0], questions.RenameOptions{
			Prefix:     renamePrefix,
			StartIndex: renameStart,
			Digits:     renameDigits,
		})
		if err != nil {
			return err
		}
		fmt.Printf("renamed %d images\n", count)
		return nil
	},
}

func init() {
	renameCmd.Flags().StringVar(&renamePrefix, "prefix", "", "Name prefix (empty produces bare numbers)")
	renameCmd.Flags().IntVar(&renameStart, "start", 1, "First index")
	renameCmd.Flags().IntVar(&renameDigits, "digits", 4, "Zero-padded width")

	rootCmd.AddCommand(renameCmd)
}
