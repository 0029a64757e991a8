package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Sasakiai/poker-chip-distribution/internal/chipspec"
	"github.com/Sasakiai/poker-chip-distribution/internal/config"
	"github.com/Sasakiai/poker-chip-distribution/internal/distribution"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/render"
)

// options holds flag values shared by every subcommand.
type options struct {
	configPath string
	asJSON     bool
	inventory  string

	players    int
	buyIns     []string
	smallBlind string
	bigBlind   string
	multiplier string

	alternatives int
	chips        string

	cfg    *config.Config
	engine *distribution.Engine
}

func newRootCmd() *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:           "chipdist",
		Short:         "Plan poker chip distributions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "YAML config file (default ./.chipdist.yaml or $HOME/.chipdist.yaml)")
	rootCmd.PersistentFlags().BoolVar(&o.asJSON, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&o.inventory, "inventory", "", `Chip inventory to check against, e.g. "150x1,150x5,100x25" (default from config)`)

	distributeCmd := &cobra.Command{
		Use:   "distribute",
		Short: "Compute the recommended distribution",
		Args:  cobra.NoArgs,
		RunE:  o.runDistribute,
	}
	o.gameFlags(distributeCmd)
	distributeCmd.Flags().StringVar(&o.multiplier, "multiplier", "", "Force a money-per-chip multiplier instead of choosing one")
	distributeCmd.Flags().IntVar(&o.alternatives, "alternatives", distribution.DefaultMaxAlternatives, "Number of alternatives to list (0 for none)")

	alternativesCmd := &cobra.Command{
		Use:   "alternatives",
		Short: "Rank alternative multipliers",
		Args:  cobra.NoArgs,
		RunE:  o.runAlternatives,
	}
	o.gameFlags(alternativesCmd)
	alternativesCmd.Flags().IntVar(&o.alternatives, "max", distribution.DefaultMaxAlternatives, "Number of alternatives to list")

	customCmd := &cobra.Command{
		Use:   "custom",
		Short: "Check a hand-picked chip set",
		Args:  cobra.NoArgs,
		RunE:  o.runCustom,
	}
	o.gameFlags(customCmd)
	customCmd.Flags().StringVar(&o.multiplier, "multiplier", "", "Money per chip unit")
	customCmd.Flags().StringVar(&o.chips, "chips", "", `Chips handed to every player, e.g. "20x1,16x5,12x25"`)
	customCmd.MarkFlagRequired("multiplier")
	customCmd.MarkFlagRequired("chips")

	inventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Show the chip inventory",
		Args:  cobra.NoArgs,
		RunE:  o.runInventory,
	}

	rootCmd.AddCommand(distributeCmd, alternativesCmd, customCmd, inventoryCmd)
	return rootCmd
}

func (o *options) gameFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&o.players, "players", "p", 0, "Number of players (default: one per buy-in)")
	cmd.Flags().StringSliceVarP(&o.buyIns, "buy-in", "b", nil, "Buy-in per player; a single value applies to every player")
	cmd.Flags().StringVar(&o.smallBlind, "small-blind", "", "Small blind in money")
	cmd.Flags().StringVar(&o.bigBlind, "big-blind", "", "Big blind in money")
	cmd.MarkFlagRequired("buy-in")
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.Logger(cmd.ErrOrStderr()))

	if o.inventory != "" {
		inv, err := chipspec.ParseInventory(o.inventory)
		if err != nil {
			return err
		}
		if err := inventory.Validate(inv, cfg.Denominations); err != nil {
			return err
		}
		cfg.Inventory = inv
	}

	engine, err := distribution.New(cfg.Denominations, cfg.Scoring)
	if err != nil {
		return err
	}
	o.cfg, o.engine = cfg, engine
	return nil
}

// params builds game parameters from the shared flags.
func (o *options) params() (model.GameParams, error) {
	var p model.GameParams
	if len(o.buyIns) == 0 {
		return p, fmt.Errorf("%w: at least one --buy-in is required", model.ErrInvalidParameters)
	}
	buyIns := make([]decimal.Decimal, 0, len(o.buyIns))
	for _, s := range o.buyIns {
		b, err := decimal.NewFromString(s)
		if err != nil {
			return p, fmt.Errorf("%w: buy-in %q: %v", model.ErrInvalidParameters, s, err)
		}
		buyIns = append(buyIns, b)
	}

	players := o.players
	if players == 0 {
		players = len(buyIns)
	}
	if len(buyIns) == 1 && players > 1 {
		for len(buyIns) < players {
			buyIns = append(buyIns, buyIns[0])
		}
	}
	p.Players = players
	p.BuyIns = buyIns

	var err error
	if p.SmallBlind, err = optionalDecimal("small-blind", o.smallBlind); err != nil {
		return p, err
	}
	if p.BigBlind, err = optionalDecimal("big-blind", o.bigBlind); err != nil {
		return p, err
	}
	return p, nil
}

func optionalDecimal(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s %q: %v", model.ErrInvalidParameters, name, s, err)
	}
	return &v, nil
}

func (o *options) runDistribute(cmd *cobra.Command, args []string) error {
	p, err := o.params()
	if err != nil {
		return err
	}
	if p.ForceMultiplier, err = optionalDecimal("multiplier", o.multiplier); err != nil {
		return err
	}

	optimal, err := o.engine.Distribute(p, o.cfg.Inventory)
	if err != nil {
		return err
	}
	slog.Debug("distribution computed", "multiplier", optimal.Multiplier, "feasible", optimal.Feasible)

	alternatives := []model.Result{}
	if o.alternatives > 0 {
		alts, err := o.engine.FindAlternatives(cmd.Context(), p, o.cfg.Inventory, o.alternatives)
		if err != nil {
			return err
		}
		alternatives = distribution.ExcludeMultiplier(alts, optimal.Multiplier)
	}
	recommendation := distribution.Recommend(optimal, alternatives)

	out := cmd.OutOrStdout()
	if o.asJSON {
		return writeJSON(out, map[string]any{
			"optimal":        optimal,
			"alternatives":   alternatives,
			"recommendation": recommendation,
		})
	}

	s, err := render.Result(optimal, o.engine.Denominations())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	if len(alternatives) > 0 {
		s, err := render.Alternatives(alternatives)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	}
	fmt.Fprintln(out, recommendation)
	return nil
}

func (o *options) runAlternatives(cmd *cobra.Command, args []string) error {
	p, err := o.params()
	if err != nil {
		return err
	}
	alts, err := o.engine.FindAlternatives(cmd.Context(), p, o.cfg.Inventory, o.alternatives)
	if err != nil {
		return err
	}

	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), alts)
	}
	s, err := render.Alternatives(alts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}

func (o *options) runCustom(cmd *cobra.Command, args []string) error {
	p, err := o.params()
	if err != nil {
		return err
	}
	m, err := decimal.NewFromString(o.multiplier)
	if err != nil {
		return fmt.Errorf("%w: --multiplier %q: %v", model.ErrInvalidParameters, o.multiplier, err)
	}
	chips, err := chipspec.ParseAllocation(o.chips)
	if err != nil {
		return err
	}

	res, err := o.engine.ValidateCustom(p, m, chips, o.cfg.Inventory)
	if err != nil {
		return err
	}

	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	s, err := render.Custom(res, o.engine.Denominations())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}

func (o *options) runInventory(cmd *cobra.Command, args []string) error {
	inv := o.cfg.Inventory
	if o.asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"inventory":   inv,
			"total_value": inventory.TotalValue(inv),
		})
	}
	s, err := render.Inventory(inv)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
