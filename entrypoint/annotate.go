package main

import (
	"haidetect.com/hai/knowtator"
	"haidetect.com/hai/logger"
	"haidetect.com/hai/pipeline"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	corpusDir     = "corpus"
	outputDir     = "hai_detect"
	progressEvery = 10
)

type AnnotateOptions struct {
	DataDir  string
	NoJSON   bool
	Progress int
}

type AnnotateSummary struct {
	Reports     int
	Annotations int
	Failures    int
}

func newAnnotateCmd() *cobra.Command {
	var opts AnnotateOptions
	cmd := &cobra.Command{
		Use:   "annotate <datadir>",
		Short: "Annotate every <datadir>/corpus/*.txt report into <datadir>/hai_detect.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.DataDir = args[0]
			ppln, err := pipeline.HAIDetect(options.pipelineParams(nil))
			if err != nil {
				return err
			}
			summary, err := annotateCorpus(ppln, opts, time.Now)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(
				cmd.OutOrStdout(),
				"annotated %d reports: %d annotations, %d classification failures\n",
				summary.Reports, summary.Annotations, summary.Failures,
			)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.NoJSON, "no-json", false, "write only knowtator XML")
	cmd.Flags().IntVar(&opts.Progress, "progress", progressEvery, "log progress every N reports")
	return cmd
}

// annotateCorpus writes <rpt>.txt.knowtator.xml and <rpt>.json for every
// report of the corpus. Reports are processed in file name order.
func annotateCorpus(ppln pipeline.Pipeline, opts AnnotateOptions, now func() time.Time) (AnnotateSummary, error) {
	annotateLogger := logger.NewLogger("Annotate")
	var summary AnnotateSummary

	info, err := os.Stat(opts.DataDir)
	if err != nil {
		return summary, err
	}
	if !info.IsDir() {
		return summary, fmt.Errorf("%s is not a directory", opts.DataDir)
	}
	reports, err := filepath.Glob(filepath.Join(opts.DataDir, corpusDir, "*.txt"))
	if err != nil {
		return summary, err
	}
	sort.Strings(reports)

	outDir := filepath.Join(opts.DataDir, outputDir)
	if err = os.MkdirAll(outDir, 0o755); err != nil {
		return summary, err
	}
	if opts.Progress <= 0 {
		opts.Progress = progressEvery
	}

	for i, report := range reports {
		if i%opts.Progress == 0 {
			annotateLogger.Info().Msgf("%d/%d", i, len(reports))
		}
		res, err := annotateReport(ppln, report, outDir, !opts.NoJSON, now)
		if err != nil {
			return summary, fmt.Errorf("failed to annotate %s: %w", report, err)
		}
		logAnnotations(annotateLogger, res)
		summary.Reports++
		summary.Annotations += len(res.Document.Annotations)
		summary.Failures += len(res.Failures)
	}
	annotateLogger.Info().
		Int("reports", summary.Reports).
		Int("annotations", summary.Annotations).
		Int("failures", summary.Failures).
		Str("out_dir", outDir).
		Msg("Finished corpus")
	return summary, nil
}

func annotateReport(
	ppln pipeline.Pipeline,
	path string,
	outDir string,
	writeJSON bool,
	now func() time.Time,
) (pipeline.Result, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Result{}, err
	}
	rptID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	res, ok := <-ppln(pipeline.Request{Text: string(text), Tid: rptID})
	if !ok {
		return pipeline.Result{}, errors.New("pipeline returned no result")
	}
	if _, err = knowtator.WriteFile(outDir, res.Document, rptID, now()); err != nil {
		return res, err
	}
	if !writeJSON {
		return res, nil
	}
	b, err := res.JSON()
	if err != nil {
		return res, err
	}
	return res, os.WriteFile(filepath.Join(outDir, rptID+".json"), b, 0o644)
}

func logAnnotations(l zerolog.Logger, res pipeline.Result) {
	for _, ann := range res.Document.Annotations {
		l.Debug().Str("report", res.Tid).Msg(ann.ShortString())
	}
}
