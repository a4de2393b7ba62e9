package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daixun-ai/papercutter-vl/internal/questions"
)

var fillCmd = &cobra.Command{
	Use:   "fill <file-or-dir>",
	Short: "Fill grade, volume, chapter, section, and subject from file paths",
	Long: `Fill curriculum metadata in question record files from their
directory structure. Path components like 七年级 (grade), 上册 (volume),
第三章 概率初步 (chapter), 1 探索勾股定理 (section), and 数学 (subject)
are recognized, and every matched component overwrites that field in
every record of the file.

Examples:
  papercutter fill output/七年级/数学/paper.json
  papercutter fill output/            # All record files recursively`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := questions.FillPath(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("updated %d record files\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fillCmd)
}
