package main

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cognicore/papernlp/pkg/papernlp/dispatch"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the corpus files a run would process",
	RunE:  runScan,
}

var scanJSON bool

func init() {
	f := scanCmd.Flags()
	f.String("corpus", "", "corpus directory")
	f.String("delta", "", "delta file listing already processed papers")
	f.Int("max-files", 0, "list at most this many files (0 = all)")
	f.Int64("seed", 1, "shuffle seed")
	f.BoolVar(&scanJSON, "json", false, "print a shard manifest instead of a table")
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, runBindings)
	if err != nil {
		return err
	}
	if err := cfg.RequireCorpus(); err != nil {
		return err
	}
	files, err := scanCorpus(cfg)
	if err != nil {
		return err
	}
	files = dispatch.Order(files, rand.New(rand.NewSource(cfg.Corpus.Seed)), cfg.Corpus.MaxFiles)

	out := cmd.OutOrStdout()
	if scanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(files)
	}
	var total int64
	for _, f := range files {
		total += f.Size
		fmt.Fprintf(out, "%-10s %s\n", humanize.Bytes(uint64(f.Size)), f.Path)
	}
	fmt.Fprintf(out, "%s files, %s\n", humanize.Comma(int64(len(files))), humanize.Bytes(uint64(total)))
	return nil
}
