package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/mpg/pkg/markov"
	"github.com/CTAG07/mpg/pkg/seqio"
	"github.com/CTAG07/mpg/pkg/store"
	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// rootOptions holds the flag values of the root command. Values that also
// exist in Config are only applied when the flag was set explicitly.
type rootOptions struct {
	configPath    string
	flags         Config
	seed          uint64
	dump          string
	referenceDump bool
	top           int
	prune         uint64
	saveModel     string
	merge         bool
	model         string
}

func (o *rootOptions) register(cmd *cobra.Command) {
	defaults := DefaultConfig()

	persistent := cmd.PersistentFlags()
	persistent.StringVar(&o.configPath, "config", "", "JSON or TOML config file; created with defaults if missing")
	persistent.StringVar(&o.flags.LogLevel, "log-level", defaults.LogLevel, "log level (debug|info|warn|error)")
	persistent.StringVar(&o.flags.DatabasePath, "db", defaults.DatabasePath, "SQLite model store")

	flags := cmd.Flags()
	flags.IntVarP(&o.flags.Order, "order", "k", defaults.Order, "model order (context length)")
	flags.IntVarP(&o.flags.Length, "length", "l", defaults.Length, "length of the generated sequence; 0 only fits the model")
	flags.Uint64VarP(&o.seed, "seed", "s", 0, "random seed; omitted means non-deterministic")
	flags.StringVarP(&o.dump, "dump", "d", "", "write the model to this YAML dump")
	flags.BoolVarP(&o.referenceDump, "reference-dump", "r", false, "the reference is a model dump instead of sequences")
	flags.StringVar(&o.flags.Smoothing, "smoothing", defaults.Smoothing, "policy for unobserved contexts (none|uniform|laplace)")
	flags.StringVar(&o.flags.Solver, "solver", defaults.Solver, "stationary distribution solver (power|eigen)")
	flags.IntVar(&o.flags.MaxIterations, "max-iterations", defaults.MaxIterations, "power iteration limit")
	flags.Float64Var(&o.flags.Tolerance, "tolerance", defaults.Tolerance, "power iteration tolerance")
	flags.IntVar(&o.flags.BurnIn, "burn-in", defaults.BurnIn, "transitions to discard before output")
	flags.Float64Var(&o.flags.Temperature, "temperature", defaults.Temperature, "sampling temperature; 0 always picks the most likely symbol")
	flags.StringVar(&o.flags.Name, "name", defaults.Name, "FASTA header of the generated sequence")
	flags.BoolVar(&o.flags.Progress, "progress", defaults.Progress, "show a progress bar while reading references")
	flags.IntVar(&o.top, "top", 0, "print the n most frequent contexts to standard error")
	flags.Uint64Var(&o.prune, "prune", 0, "drop transitions seen at most this many times before fitting")
	flags.StringVar(&o.saveModel, "save-model", "", "store the trained counts under this name in --db")
	flags.BoolVar(&o.merge, "merge", false, "with --save-model, add to the stored counts instead of replacing them")
	flags.StringVar(&o.model, "model", "", "start from the counts stored under this name in --db")
}

// resolve loads the config file, applies explicit flags and builds the
// logger on the command's standard error.
func (o *rootOptions) resolve(cmd *cobra.Command) (*Config, *slog.Logger, error) {
	changed := cmd.Flags().Changed
	stderr := cmd.ErrOrStderr()

	bootLevel := slog.LevelInfo
	if changed("log-level") {
		bootLevel = parseLogLevel(o.flags.LogLevel)
	}
	bootLogger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: bootLevel}))

	cfg := DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = LoadConfig(o.configPath, bootLogger); err != nil {
			return nil, nil, err
		}
	}

	if changed("order") {
		cfg.Order = o.flags.Order
	}
	if changed("length") {
		cfg.Length = o.flags.Length
	}
	if changed("seed") {
		seed := o.seed
		cfg.Seed = &seed
	}
	if changed("smoothing") {
		cfg.Smoothing = o.flags.Smoothing
	}
	if changed("solver") {
		cfg.Solver = o.flags.Solver
	}
	if changed("max-iterations") {
		cfg.MaxIterations = o.flags.MaxIterations
	}
	if changed("tolerance") {
		cfg.Tolerance = o.flags.Tolerance
	}
	if changed("burn-in") {
		cfg.BurnIn = o.flags.BurnIn
	}
	if changed("temperature") {
		cfg.Temperature = o.flags.Temperature
	}
	if changed("name") {
		cfg.Name = o.flags.Name
	}
	if changed("progress") {
		cfg.Progress = o.flags.Progress
	}
	if changed("log-level") {
		cfg.LogLevel = o.flags.LogLevel
	}
	if changed("db") {
		cfg.DatabasePath = o.flags.DatabasePath
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	return cfg, logger, nil
}

// openStore opens the model store at cfg.DatabasePath. The returned function
// releases the store and the database.
func openStore(cfg *Config, logger *slog.Logger) (*store.Store, func(), error) {
	if cfg.DatabasePath == "" {
		return nil, nil, errors.New("a model store is required; set --db or database_path")
	}
	db, err := initDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to initialize database")
	}
	if err = store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "failed to setup model schema")
	}
	st, err := store.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "failed to prepare model store")
	}
	st.SetLogger(logger)
	return st, func() {
		st.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", slog.Any("error", err))
		}
	}, nil
}

func runGenerate(cmd *cobra.Command, o *rootOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	switch {
	case len(args) == 0 && o.model == "":
		return errors.New("at least one reference is required unless --model is given")
	case o.referenceDump && len(args) != 1:
		return errors.Errorf("--reference-dump takes exactly one model dump, got %d", len(args))
	case o.referenceDump && o.model != "":
		return errors.New("--reference-dump and --model are mutually exclusive")
	case o.merge && o.saveModel == "":
		return errors.New("--merge requires --save-model")
	case cfg.Length < 0:
		return errors.Wrapf(markov.ErrInvalidLength, "--length %d", cfg.Length)
	}

	modelOpts, err := cfg.modelOptions(logger)
	if err != nil {
		return err
	}

	var st *store.Store
	if o.model != "" || o.saveModel != "" {
		var closeStore func()
		if st, closeStore, err = openStore(cfg, logger); err != nil {
			return err
		}
		defer closeStore()
	}

	m, err := o.buildModel(ctx, cmd, cfg, st, modelOpts, args, logger)
	if err != nil {
		return err
	}

	if o.prune > 0 {
		if _, err = m.Prune(o.prune); err != nil {
			return err
		}
	}

	if o.saveModel != "" {
		if o.merge {
			_, err = st.MergeModel(ctx, o.saveModel, m)
		} else {
			_, err = st.SaveModel(ctx, o.saveModel, m)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to store model %q", o.saveModel)
		}
	}

	if o.top > 0 {
		errOut := cmd.ErrOrStderr()
		for _, c := range m.TopContexts(o.top) {
			_, _ = fmt.Fprintf(errOut, "%s\t%d\n", c.Kmer, c.Count)
		}
	}

	if err = m.Fit(); err != nil {
		return errors.Wrap(err, "failed to fit model")
	}

	if o.dump != "" {
		if err = m.SaveFile(o.dump); err != nil {
			return err
		}
	}

	stats := m.Stats()
	logger.Info("Model ready",
		slog.Int("order", stats.Order),
		slog.Int("observed_contexts", stats.ObservedContexts),
		slog.Uint64("transitions", stats.TotalTransitions),
	)

	if cfg.Length == 0 {
		return nil
	}
	return generate(ctx, cmd.OutOrStdout(), m, cfg, logger)
}

// buildModel creates the model from the store, a dump or the references.
func (o *rootOptions) buildModel(ctx context.Context, cmd *cobra.Command, cfg *Config, st *store.Store, modelOpts []markov.Option, args []string, logger *slog.Logger) (*markov.Model, error) {
	var m *markov.Model
	var err error

	switch {
	case o.model != "":
		info, err := st.GetModelInfo(ctx, o.model)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Errorf("model %q not found in %s", o.model, cfg.DatabasePath)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to look up model %q", o.model)
		}
		if m, err = st.LoadModel(ctx, info, modelOpts...); err != nil {
			return nil, err
		}
	case o.referenceDump:
		if m, err = markov.New(1, modelOpts...); err != nil {
			return nil, err
		}
		if err = m.LoadFile(args[0]); err != nil {
			return nil, err
		}
		args = nil
	default:
		if m, err = markov.New(cfg.Order, modelOpts...); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("order") && m.Order() != cfg.Order {
		logger.Warn("Ignoring --order; the model order is fixed by the loaded counts",
			slog.Int("requested", cfg.Order),
			slog.Int("order", m.Order()),
		)
	}

	if err = accumulateReferences(ctx, m, args, cfg.Progress, cmd.ErrOrStderr(), logger); err != nil {
		return nil, err
	}
	return m, nil
}

// accumulateReferences trains m on every record of every reference file.
func accumulateReferences(ctx context.Context, m *markov.Model, paths []string, progress bool, stderr io.Writer, logger *slog.Logger) error {
	if len(paths) == 0 {
		return nil
	}

	var bar *pb.ProgressBar
	if progress {
		bar = pb.Full.New(len(paths)).SetWriter(stderr).Start()
		defer bar.Finish()
	}

	for _, path := range paths {
		records, err := seqio.ReadFile(ctx, path, func(r seqio.Record) error {
			return m.Accumulate(r.Seq)
		})
		if err != nil {
			return err
		}
		logger.Info("Reference loaded",
			slog.String("path", path),
			slog.Int("records", records),
		)
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}

// generate samples cfg.Length symbols and writes them as a FASTA record.
func generate(ctx context.Context, w io.Writer, m *markov.Model, cfg *Config, logger *slog.Logger) error {
	g, err := markov.NewGenerator(m, cfg.generatorOptions(logger)...)
	if err != nil {
		return err
	}
	fw, err := seqio.NewFASTAWriter(w, cfg.Name)
	if err != nil {
		return errors.Wrap(err, "failed to write FASTA header")
	}
	if _, err = g.GenerateTo(ctx, fw, cfg.Length); err != nil {
		return errors.Wrap(err, "failed to generate sequence")
	}
	if err = fw.Close(); err != nil {
		return errors.Wrap(err, "failed to write FASTA record")
	}
	logger.Info("Sequence generated",
		slog.String("name", cfg.Name),
		slog.Int("length", cfg.Length),
	)
	return nil
}
