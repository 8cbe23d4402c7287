// Command simulate grows a colony offline against a manual clock and prints
// the resulting economy report.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mamadbah2/cryptoants/internal/clock"
	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/currency"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
	"github.com/mamadbah2/cryptoants/internal/economy"
	"github.com/mamadbah2/cryptoants/internal/randomness"
	reportingsvc "github.com/mamadbah2/cryptoants/internal/service/reporting"
)

const player models.Address = "player"

func main() {
	var (
		economyFile = flag.String("economy", "", "yaml economy file (optional)")
		rounds      = flag.Int("rounds", 48, "number of cooldown periods to simulate")
		seed        = flag.Uint64("seed", 1, "random seed")
		funds       = flag.Uint64("funds", 1, "starting player balance in whole ETH")
		sellAbove   = flag.Int("sell_above", 0, "sell ants once the colony exceeds this size (0 disables)")
		maxAnts     = flag.Int("max_ants", 1000, "stop hatching once the colony reaches this size")
		verbose     = flag.Bool("v", false, "print one line per round")
	)
	flag.Parse()

	cfg := config.DefaultEconomy()
	if *economyFile != "" {
		if err := config.LoadEconomyFile(*economyFile, &cfg); err != nil {
			fmt.Fprintln(os.Stderr, "economy file:", err)
			os.Exit(1)
		}
	}
	if *rounds <= 0 {
		fmt.Fprintln(os.Stderr, "-rounds must be positive")
		os.Exit(2)
	}

	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := currency.NewBank(models.Address(cfg.Authority), currency.Ether(1))
	if err := bank.Deposit(player, currency.Ether(*funds)); err != nil {
		fmt.Fprintln(os.Stderr, "deposit:", err)
		os.Exit(1)
	}

	engine, err := economy.New(cfg, economy.Deps{
		Bank:   bank,
		Clock:  clk,
		Random: randomness.NewSeeded(*seed),
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}

	if _, err := engine.BuyEggs(player, 1, cfg.EggPrice); err != nil {
		fmt.Fprintln(os.Stderr, "buy first egg:", err)
		os.Exit(1)
	}

	for round := 1; round <= *rounds; round++ {
		hatchAll(engine, *maxAnts)
		for _, ant := range engine.AntsOf(player) {
			if _, err := engine.CreateEgg(player, ant.ID); err != nil && !errors.Is(err, economy.ErrCooldownActive) {
				fmt.Fprintln(os.Stderr, "lay:", err)
				os.Exit(1)
			}
		}
		if *sellAbove > 0 {
			sellSurplus(engine, *sellAbove)
		}
		if *verbose {
			fmt.Printf("round %d t=%s ants=%d eggs=%d balance=%s ETH\n",
				round, clk.Now().Format(time.RFC3339), engine.AntBalance(player), engine.EggBalance(player),
				currency.FormatEther(bank.BalanceOf(player)))
		}
		clk.Advance(cfg.Cooldown)
	}

	reports := reportingsvc.NewService(engine, bank, nil, nil, nil)
	fmt.Println(reportingsvc.Summarize(reports.Snapshot()))
	fmt.Printf("player: %d ants, %d eggs, %s ETH\n",
		engine.AntBalance(player), engine.EggBalance(player), currency.FormatEther(bank.BalanceOf(player)))
}

func hatchAll(engine *economy.Engine, limit int) {
	for engine.EggBalance(player) > 0 && engine.AntBalance(player) < limit {
		if _, err := engine.CreateAnt(player); err != nil {
			fmt.Fprintln(os.Stderr, "hatch:", err)
			os.Exit(1)
		}
	}
}

func sellSurplus(engine *economy.Engine, limit int) {
	ants := engine.AntsOf(player)
	for i := 0; len(ants)-i > limit; i++ {
		if _, err := engine.SellAnt(player, ants[i].ID); err != nil {
			if errors.Is(err, currency.ErrTreasuryDepleted) {
				return
			}
			fmt.Fprintln(os.Stderr, "sell:", err)
			os.Exit(1)
		}
	}
}
