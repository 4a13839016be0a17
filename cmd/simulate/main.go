// Package main runs a headless battle: it loads the ruleset, content scripts
// and a scenario, then lets both teams fight it out under the AI planner.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/event"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/scenario"
	"github.com/cory-johannsen/tactics/internal/scripting"
	"github.com/cory-johannsen/tactics/internal/simulation"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/simulate.yaml", "path to configuration file")
	scenarioPath := flag.String("scenario", "", "scenario file; overrides content.scenario")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scenarioPath != "" {
		cfg.Content.Scenario = *scenarioPath
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	reg, err := ruleset.LoadDirectory(cfg.Content.RulesetDir)
	if err != nil {
		logger.Fatal("loading ruleset", zap.Error(err))
	}
	counts := reg.Counts()
	logger.Info("ruleset loaded",
		zap.Int("attacks", counts["attacks"]),
		zap.Int("weapons", counts["weapons"]),
		zap.Int("passives", counts["passives"]),
		zap.Int("statuses", counts["statuses"]),
		zap.Int("terrains", counts["terrains"]),
	)

	src := dice.NewCryptoSource()
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
	}
	roller := dice.NewLoggedRoller(src, logger.Named("dice"))

	var scripts *scripting.Manager
	deps := combat.Deps{
		Registry: reg,
		Bus:      event.NewBus(),
		Roller:   roller,
		Rules:    cfg.Rules,
		Logger:   logger.Named("combat"),
	}
	if cfg.Content.ScriptsDir != "" {
		scripts = scripting.NewManager(roller, logger.Named("scripting"))
		if err := scripts.Load(cfg.Content.ScriptsDir, cfg.Content.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		defer scripts.Close()
		deps.Scripts = scripts
	}

	sc, err := scenario.LoadFile(cfg.Content.Scenario)
	if err != nil {
		logger.Fatal("loading scenario", zap.Error(err))
	}
	battle, err := sc.Build(deps)
	if err != nil {
		logger.Fatal("building battle", zap.String("scenario", sc.Name), zap.Error(err))
	}
	if scripts != nil {
		scripts.GetUnit = battle.ScriptView
	}

	hostLogger := observability.Component(logger, "host", battle.ID)
	simulation.NewJournal(deps.Bus, observability.Component(logger, "journal", battle.ID))
	planner := ai.NewPlanner(battle, cfg.AI)
	runner := simulation.NewRunner(battle, planner, cfg, hostLogger)

	hostLogger.Info("battle initialized",
		zap.String("scenario", sc.Name),
		zap.Int("units", len(battle.Units())),
		zap.Duration("startup", time.Since(start)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		hostLogger.Error("simulation aborted", zap.Error(err))
		os.Exit(1)
	}
	hostLogger.Info("battle over",
		zap.Bool("decided", res.Decided),
		zap.Stringer("winner", res.Winner),
		zap.Int("rounds", res.Rounds),
		zap.Int("frames", res.Frames),
	)
	if res.Decided {
		fmt.Printf("%s wins after %d rounds\n", res.Winner, res.Rounds)
	} else {
		fmt.Printf("draw after %d rounds\n", res.Rounds)
	}
}
