// Command hbnb-storage inspects the hbnb record store selected by the HBNB_*
// environment (or a YAML file given with --config).
package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"hbnb/internal/config"
	"hbnb/internal/core"
	"hbnb/pkg/domain"
)

var (
	exitFunc  = os.Exit
	lookupEnv = os.LookupEnv
)

const (
	metricsPrometheus = "prometheus"
	metricsExpvar     = "expvar"
)

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		errColor := color.New(color.FgRed, color.Bold)
		_, _ = errColor.Fprint(stderr, "error: ")
		_, _ = fmt.Fprintln(stderr, err)
		if errors.Is(err, domain.ErrNotFound) {
			return 3
		}
		return 1
	}
	return 0
}

type rootOptions struct {
	configPath string
	logLevel   string
	metrics    string
	trace      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "hbnb-storage",
		Short:         "Inspect the hbnb record store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides HBNB_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (overrides HBNB_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.metrics, "metrics", "", "print storage metrics to stderr on exit (prometheus|expvar)")
	cmd.PersistentFlags().Lookup("metrics").NoOptDefVal = metricsPrometheus
	cmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "write storage operation spans to stderr as JSON lines")

	cmd.AddCommand(listCmd(opts), countCmd(opts), showCmd(opts))
	return cmd
}

func listCmd(opts *rootOptions) *cobra.Command {
	var kind []string
	c := &cobra.Command{
		Use:   "list",
		Short: "Print the text representation of every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds, err := parseKinds(kind...)
			if err != nil {
				return err
			}
			return withStorage(cmd, opts, func(s *core.Storage) error {
				records := s.All(kinds...)
				keys := make([]string, 0, len(records))
				for key := range records {
					keys = append(keys, key)
				}
				sort.Strings(keys)
				for _, key := range keys {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), records[key].String()); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	c.Flags().StringSliceVarP(&kind, "kind", "k", nil, "restrict to kinds (repeatable or comma separated)")
	return c
}

func countCmd(opts *rootOptions) *cobra.Command {
	var kind []string
	c := &cobra.Command{
		Use:   "count",
		Short: "Print the number of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kinds, err := parseKinds(kind...)
			if err != nil {
				return err
			}
			return withStorage(cmd, opts, func(s *core.Storage) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), s.Count(kinds...))
				return err
			})
		},
	}
	c.Flags().StringSliceVarP(&kind, "kind", "k", nil, "restrict to kinds (repeatable or comma separated)")
	return c
}

func showCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return withStorage(cmd, opts, func(s *core.Storage) error {
				rec, err := s.Get(kind, args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rec.String())
				return err
			})
		},
	}
}

func parseKinds(raw ...string) ([]domain.Kind, error) {
	var kinds []domain.Kind
	for _, name := range raw {
		kind, err := parseKind(name)
		if err != nil {
			return nil, err
		}
		if !containsKind(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

func parseKind(raw string) (domain.Kind, error) {
	for _, k := range domain.Kinds() {
		if strings.EqualFold(string(k), strings.TrimSpace(raw)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownKind, raw)
}

func containsKind(kinds []domain.Kind, kind domain.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func withStorage(cmd *cobra.Command, opts *rootOptions, fn func(*core.Storage) error) (err error) {
	cfg, err := config.FromEnv(func(key string) (string, bool) {
		switch {
		case key == "HBNB_CONFIG" && opts.configPath != "":
			return opts.configPath, true
		case key == "HBNB_LOG_LEVEL" && opts.logLevel != "":
			return opts.logLevel, true
		}
		return lookupEnv(key)
	})
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	storageOpts := []core.Option{core.WithLogger(logger)}
	reg := prometheus.NewRegistry()
	var expvarRecorder *core.ExpvarMetricsRecorder
	switch opts.metrics {
	case "", metricsPrometheus:
		recorder, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return err
		}
		storageOpts = append(storageOpts, core.WithMetricsRecorder(recorder))
	case metricsExpvar:
		expvarRecorder = core.NewExpvarMetricsRecorder("")
		storageOpts = append(storageOpts, core.WithMetricsRecorder(expvarRecorder))
	default:
		return fmt.Errorf("unknown metrics format %q", opts.metrics)
	}
	if opts.trace {
		storageOpts = append(storageOpts, core.WithTracer(core.NewJSONTracer(cmd.ErrOrStderr())))
	}

	storage, err := core.OpenStorage(cmd.Context(), cfg, storageOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); err == nil {
			err = cerr
		}
		switch {
		case expvarRecorder != nil:
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), expvar.Get(expvarRecorder.Name()).String())
		case opts.metrics != "":
			dumpMetrics(cmd.ErrOrStderr(), reg)
		}
	}()
	return fn(storage)
}

func dumpMetrics(w io.Writer, gatherer prometheus.Gatherer) {
	families, err := gatherer.Gather()
	if err != nil {
		_, _ = fmt.Fprintf(w, "metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			_, _ = fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
}
