package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"DashSync/internal/command"
	"DashSync/internal/dashboard"
	"DashSync/internal/model"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Fetch the service state once and print the projected frame as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			a.dash.Bootstrap(ctx)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(a.dash.Frame())
		},
	}
}

func modeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode <demo|real>",
		Short:     "Switch the account trading mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.ModeDemo), string(model.ModeReal)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			a.dash.Bootstrap(ctx)
			res, err := a.coordinator.Switch(ctx, model.TradingMode(args[0]))
			if err != nil {
				return fmt.Errorf("%s", command.Message(err))
			}
			fmt.Printf("trading mode: %s -> %s\n", res.From, res.To)
			if res.Balance != nil {
				fmt.Printf("balance: %.2f\n", *res.Balance)
			}
			if res.ReconcileErr != nil {
				fmt.Printf("warning: reconcile fetch failed: %v\n", res.ReconcileErr)
			}
			return nil
		},
	}
}

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [arg]",
		Short: "Send one command to the trading service",
		Long: `Send one command to the trading service. Commands:
  start_bot, stop_bot, open_long, open_short, close_position,
  delete_last_trade, reset_balance, set_leverage N,
  toggle_open_level TAG, toggle_close_level TAG, toggle_rebalance

Level toggles start from the strategy levels fetched from the service.
The service does not report the rebalance flag up front, so a one-shot
toggle_rebalance always asks to enable it; the printed result is the
state the service actually applied.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 1 {
				arg = args[1]
			}
			c, err := command.Parse(args[0], arg)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// Level toggles need the current levels. The rebalance flag is only known
			// from toggle responses, so it starts out disabled here.
			loadSettings(ctx, a.dash)
			res, err := a.dispatcher.Dispatch(ctx, c)
			if err != nil {
				return fmt.Errorf("%s", command.Message(err))
			}
			fmt.Printf("%s (request %s)\n", res.Message, res.RequestID)
			if res.Rebalance != nil {
				fmt.Printf("rebalance enabled: %v\n", *res.Rebalance)
			}
			return nil
		},
	}
}

func loadSettings(ctx context.Context, d *dashboard.Dashboard) {
	if levels, err := d.Collector.Fetcher.StrategyConfig(ctx); err == nil {
		d.SetLevels(*levels)
	}
}
