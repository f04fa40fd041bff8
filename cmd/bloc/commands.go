package main

import (
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/query"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
	"github.com/krew-solutions/bloc-go/bloc/metrics"
	"github.com/krew-solutions/bloc-go/bloc/pipeline"
	"github.com/krew-solutions/bloc-go/bloc/stream"
)

// app holds the state of one command execution.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	cfg      Config
	profile  validation.Profile
	logger   *slog.Logger
	registry *prometheus.Registry
	engine   *pipeline.Engine
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "bloc",
		Short:         "Filter NDJSON records with MongoDB-style documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	bindFlags(root.PersistentFlags())

	root.AddCommand(a.filterCmd(), a.queryCmd(), a.aggregateCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	profile, err := validation.ParseProfile(cfg.Profile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.profile = profile
	a.logger = newLogger(cfg, a.stderr)
	a.registry = prometheus.NewRegistry()
	a.engine = pipeline.New(
		pipeline.WithProfile(profile),
		pipeline.WithLogger(a.logger),
		pipeline.WithObserver(metrics.NewCollector(a.registry)),
	)
	a.logger.Debug("configuration loaded",
		slog.String("input", cfg.Input),
		slog.String("profile", profile.String()),
		slog.Bool("stream", cfg.Stream),
	)
	return nil
}

func (a *app) teardown() error {
	if !a.cfg.Metrics {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(a.stderr, mf); err != nil {
			return errors.Wrap(err, "write metrics")
		}
	}
	return nil
}

// documentArg parses the optional positional document.
func documentArg(args []string) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return parseDocument(args[0])
}

func asDocument(doc any) (pipeline.Document, error) {
	switch d := doc.(type) {
	case nil:
		return nil, nil
	case pipeline.Document:
		return d, nil
	}
	return nil, errors.New("document must be a mapping")
}

// run opens the input, hands its records to produce and writes the result.
func (a *app) run(produce func(iter.Seq[pipeline.Record]) (iter.Seq[pipeline.Record], error)) error {
	in := a.stdin
	if a.cfg.Input != "-" {
		f, err := os.Open(a.cfg.Input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	reader := newRecordReader(in)
	out, err := produce(reader.Records())
	if err != nil {
		return err
	}
	writer := newRecordWriter(a.stdout)
	if err := writer.WriteAll(out); err != nil {
		return err
	}
	if err := reader.Err(); err != nil {
		return errors.Wrap(err, "decode input")
	}
	a.logger.Info("records written", slog.Int("count", writer.count))
	return nil
}

func collected(records []pipeline.Record, err error) (iter.Seq[pipeline.Record], error) {
	if err != nil {
		return nil, err
	}
	return stream.FromSlice(records), nil
}

func (a *app) filterCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "filter [DOCUMENT]",
		Short: "Write the records matching a filter document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := documentArg(args)
			if err != nil {
				return err
			}
			doc, err := asDocument(raw)
			if err != nil {
				return err
			}
			if explain {
				return a.explain(doc)
			}
			return a.run(func(records iter.Seq[pipeline.Record]) (iter.Seq[pipeline.Record], error) {
				if a.cfg.Stream {
					return a.engine.FilterStream(records, doc)
				}
				return collected(a.engine.Filter(records, doc))
			})
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the normalized filter instead of filtering")
	return cmd
}

func (a *app) explain(doc pipeline.Document) error {
	f, err := query.ParseFilter(doc, a.profile)
	if err != nil {
		return err
	}
	normalized, err := query.ToDocument(f)
	if err != nil {
		return err
	}
	return newRecordWriter(a.stdout).WriteAll(stream.FromSlice([]pipeline.Record{normalized}))
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [DOCUMENT]",
		Short: "Write the records matched by a {$match: ...} query document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := documentArg(args)
			if err != nil {
				return err
			}
			doc, err := asDocument(raw)
			if err != nil {
				return err
			}
			return a.run(func(records iter.Seq[pipeline.Record]) (iter.Seq[pipeline.Record], error) {
				return collected(a.engine.Query(records, doc))
			})
		},
	}
}

func (a *app) aggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate [STAGES]",
		Short: "Run $match, $skip and $limit stages over the records",
		Long: "STAGES is either a mapping, run in the order $match, $skip, $limit,\n" +
			"or a list of single-stage mappings run in declared order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := documentArg(args)
			if err != nil {
				return err
			}
			return a.run(func(records iter.Seq[pipeline.Record]) (iter.Seq[pipeline.Record], error) {
				switch stages := raw.(type) {
				case []pipeline.Document:
					if a.cfg.Stream {
						return a.engine.AggregatePipelineStream(records, stages)
					}
					return collected(a.engine.AggregatePipeline(records, stages))
				default:
					doc, _ := raw.(pipeline.Document)
					if a.cfg.Stream {
						return a.engine.AggregateStream(records, doc)
					}
					return collected(a.engine.Aggregate(records, doc))
				}
			})
		},
	}
}
