package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func modelsCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models in the store with their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := st.GetStats(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to read store statistics")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tORDER\tALPHABET\tCONTEXTS\tTRANSITIONS\tTOTAL")
			for _, info := range stats.Models {
				s := stats.Stats[info.Id]
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\n",
					info.Name, info.Order, info.Alphabet, s.ObservedContexts, s.Transitions, s.TotalFrequency)
			}
			return tw.Flush()
		},
	}
}

func removeCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a model from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			info, err := st.GetModelInfo(cmd.Context(), args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return errors.Errorf("model %q not found in %s", args[0], cfg.DatabasePath)
			}
			if err != nil {
				return err
			}
			return st.RemoveModel(cmd.Context(), info)
		},
	}
}

func pruneCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune <name> <min-frequency>",
		Short: "Drop stored transitions seen at most min-frequency times",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minFreq, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || minFreq < 0 {
				return errors.Errorf("invalid min-frequency %q", args[1])
			}
			cfg, logger, err := o.resolve(cmd)
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			info, err := st.GetModelInfo(cmd.Context(), args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return errors.Errorf("model %q not found in %s", args[0], cfg.DatabasePath)
			}
			if err != nil {
				return err
			}
			removed, err := st.PruneModel(cmd.Context(), info, minFreq)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d transitions from %s\n", removed, info.Name)
			return nil
		},
	}
}
