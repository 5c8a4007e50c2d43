package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/formulas"
	"github.com/zephyrtronium/formulas/promcache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options are the flags shared by all commands.
type options struct {
	logLevel  string
	prec      uint
	maxDepth  int
	cacheSize int64
	stats     bool
	id        string
	with      []string
}

func newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:   "formulas",
		Short: "Evaluate left-to-right arithmetic formulas",
		Long: `formulas evaluates formulas with bracketed variables, read strictly
left to right: "2+3*4" is 20. See "formulas eval --help".`,
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.UintVar(&o.prec, "prec", 64, "precision of logarithms in bits")
	pf.IntVar(&o.maxDepth, "max-depth", formulas.DefaultMaxDepth, "deepest nesting of parentheses and calls")
	pf.Int64Var(&o.cacheSize, "cache-size", 0, "maximum cached results (0 for unbounded)")
	pf.BoolVar(&o.stats, "stats", false, "print cache metrics after evaluating")
	pf.StringVar(&o.id, "id", "cli", "identifier reported with failures and to listeners")
	pf.StringArrayVar(&o.with, "set", nil, "name=value variable binding (any number of times)")
	root.AddCommand(newEvalCmd(&o), newSubstCmd(&o), newRunCmd(&o))
	return root
}

func newEvalCmd(o *options) *cobra.Command {
	var (
		verb string
		echo bool
	)
	cmd := &cobra.Command{
		Use:   "eval formula...",
		Short: "Evaluate formulas given as arguments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bindings(o.with)
			if err != nil {
				return err
			}
			eng, done, err := o.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done(cmd.OutOrStdout())
			verb += "\n"
			for _, a := range args {
				if echo {
					if x, err := formulas.Parse(eng.Substitute(o.id, a, b)); err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "%v : ", x)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), verb, eng.Evaluate(o.id, a, b))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting string")
	cmd.Flags().BoolVar(&echo, "echo", false, "print parse trees")
	return cmd
}

func newSubstCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "subst formula...",
		Short: "Print formulas with their variables substituted",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bindings(o.with)
			if err != nil {
				return err
			}
			eng, _, err := o.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, a := range args {
				fmt.Fprintln(cmd.OutOrStdout(), eng.Substitute(o.id, a, b))
			}
			return nil
		},
	}
}

func newRunCmd(o *options) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run sheet.yaml",
		Short: "Evaluate the formulas of a YAML sheet",
		Long: `run evaluates each formula of a sheet in order. The result of each
formula is bound to its name for the formulas after it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extra, err := bindings(o.with)
			if err != nil {
				return err
			}
			eng, done, err := o.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer done(cmd.OutOrStdout())
			run := func() error {
				s, err := loadSheet(args[0])
				if err != nil {
					return err
				}
				for k, v := range extra {
					s.Bindings[k] = v
				}
				for _, r := range s.Eval(eng) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %g\n", r.Name, r.Value)
				}
				return nil
			}
			if err := run(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchFile(cmd.Context(), args[0], func() {
				if err := run(); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "evaluate again whenever the sheet changes")
	return cmd
}

// engine creates an engine from the shared flags. done prints cache metrics
// if they were requested.
func (o *options) engine(logs io.Writer) (*formulas.Engine, func(io.Writer), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	log := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: lvl}))
	var cache formulas.Cache = formulas.NewMapCache()
	if o.cacheSize > 0 {
		c, err := formulas.NewBoundedCache(o.cacheSize)
		if err != nil {
			return nil, nil, err
		}
		cache = c
	}
	reg := prometheus.NewRegistry()
	pc, err := promcache.Wrap(cache, reg)
	if err != nil {
		return nil, nil, err
	}
	eng := formulas.New(
		formulas.WithCache(pc),
		formulas.WithLogger(log),
		formulas.WithPrec(o.prec),
		formulas.WithMaxDepth(o.maxDepth),
	)
	done := func(w io.Writer) {
		if o.stats {
			printStats(w, reg)
		}
	}
	return eng, done, nil
}

// printStats writes the counters of a registry.
func printStats(w io.Writer, reg prometheus.Gatherer) {
	mfs, err := reg.Gather()
	if err != nil {
		fmt.Fprintln(w, "gathering metrics:", err)
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
		}
	}
}

// bindings parses name=value variable definitions.
func bindings(defs []string) (formulas.Bindings, error) {
	b := make(formulas.Bindings, len(defs))
	for _, s := range defs {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return nil, fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		b[strings.TrimSpace(d[0])] = strings.TrimSpace(d[1])
	}
	return b, nil
}
