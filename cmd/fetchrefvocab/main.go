// Command fetchrefvocab downloads the GPT-2 reference vocab.json/merges.txt
// pair that internal/hfimport.LoadGPT2 consumes, for comparison or interop
// testing against this library's own trained models (spec §4 supplement).
// The download itself lives in internal/hfimport.FetchGPT2; this command is
// the cobra flag shell around it, in the style of cmd/bpetok.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpetok/internal/hfimport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var destDir string

	root := &cobra.Command{
		Use:           "fetchrefvocab",
		Short:         "Download the GPT-2 reference vocab.json/merges.txt pair used by hfimport.LoadGPT2",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := hfimport.FetchGPT2(context.Background(), destDir); err != nil {
				return err
			}
			fmt.Printf("done. files in %s/\n", destDir)
			return nil
		},
	}

	root.Flags().StringVar(&destDir, "dest", "testdata/gpt2", "directory to write vocab.json and merges.txt into")

	return root
}
