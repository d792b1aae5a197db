package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb"
	uuid "github.com/satori/go.uuid"
	"github.com/ttacon/chalk"

	"github.com/bytearena/skirmish/arenatrainer"
	"github.com/bytearena/skirmish/common/config"
	"github.com/bytearena/skirmish/common/influxdb"
	"github.com/bytearena/skirmish/common/recording"
	"github.com/bytearena/skirmish/common/store"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

func main() {
	configFile := flag.String("config", "", "Configuration file (json, yaml or toml)")
	episodes := flag.Int("episodes", -1, "Number of episodes to run; overrides the configuration")
	recordFile := flag.String("record-file", "", "Destination file for recording the episodes")
	storePath := flag.String("store", "", "SQLite file keeping the episode ledger")
	random := flag.Bool("random", false, "Drive every agent with the random policy")
	quiet := flag.Bool("quiet", false, "Hide the progress bar")
	jsonLogs := flag.Bool("json-logs", false, "Write logs as JSON lines")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		utils.FailWith(utils.NewConfigError("config", err))
	}

	if *episodes >= 0 {
		cfg.Episodes = *episodes
	}

	if *recordFile != "" {
		cfg.Record = true
		cfg.RecordFile = *recordFile
	}

	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	if *random {
		cfg.Heuristic = false
	}

	if *jsonLogs {
		utils.SetLogOutput(os.Stderr)
	}

	if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
		utils.FailWith(utils.NewConfigError("logLevel", err))
	}

	utils.Info("trainer", fmt.Sprintf("running %d episodes, teams %dv%d", cfg.Episodes, cfg.TeamSizes[0], cfg.TeamSizes[1]))

	game, err := cfg.NewGame(skirmish.WithAmmoListener(func(ammo int) {
		utils.Logger().Debug().Str("service", "trainer").Int("ammo", ammo).Msg("camera ammo")
	}))
	if err != nil {
		utils.FailWith(utils.NewConfigError("game", err))
	}

	var policy arenatrainer.Policy
	if cfg.Heuristic {
		policy = arenatrainer.NewHeuristicPolicy(game.GetConfig().Weapon)
	} else {
		policy = arenatrainer.NewRandomPolicy(rand.New(rand.NewSource(cfg.Seed)))
	}

	recordID := uuid.NewV4().String()

	var recorder recording.Recorder = recording.MakeEmptyRecorder()
	if cfg.Record {
		recorder = recording.MakeSingleArenaRecorder(cfg.RecordFile)
	}

	metadata := recording.MakeRecordMetadata(game.GetArena(), cfg.TeamSizes, cfg.TickDuration, cfg.Seed)
	if err := recorder.RecordMetadata(recordID, metadata); err != nil {
		utils.FailWith(err)
	}

	metrics := influxdb.NewClient("arena-trainer", influxdb.Options{
		URL:    cfg.Influx.URL,
		Token:  cfg.Influx.Token,
		Org:    cfg.Influx.Org,
		Bucket: cfg.Influx.Bucket,
	})
	defer metrics.TearDown()

	bar := pb.New(cfg.Episodes)
	bar.SetWidth(80)
	if !*quiet {
		bar.Start()
	}

	opts := []arenatrainer.Option{
		arenatrainer.WithRecorder(recorder, recordID),
		arenatrainer.WithMetrics(metrics),
		arenatrainer.OnEpisode(func(summary skirmish.EpisodeSummary) {
			bar.Increment()
			utils.Logger().Debug().
				Str("service", "trainer").
				Int("episode", summary.Number).
				Str("cause", summary.Cause.String()).
				Msg("episode ended")
		}),
	}

	var ledger *store.Store
	if cfg.Store.Path != "" {
		ledger, err = store.Open(cfg.Store.Path)
		if err != nil {
			utils.FailWith(utils.NewConfigError("store", err))
		}

		defer ledger.Close()
		opts = append(opts, arenatrainer.WithStore(ledger))
	}

	trainer := arenatrainer.NewTrainer(game, policy, opts...)
	metrics.Loop(trainer.ReportMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summaries, runErr := trainer.Run(ctx, cfg.Episodes)

	if !*quiet {
		bar.Finish()
	}

	if err := recorder.Close(recordID); err != nil {
		utils.WarnWith(err)
	}
	recorder.Stop()

	if runErr != nil && runErr != context.Canceled {
		utils.FailWith(runErr)
	}

	printSummaries(summaries)

	if ledger != nil {
		stats, err := ledger.Stats()
		if err != nil {
			utils.Warn("store", "could not read the ledger statistics: "+err.Error())
			return
		}

		fmt.Printf("Ledger: %d episodes, team A won %d, team B won %d, %d interrupted\n", stats.Episodes, stats.WinsA, stats.WinsB, stats.Interrupted)
	}
}

func printSummaries(summaries []skirmish.EpisodeSummary) {
	var wins [2]int
	var rewards [2]float64
	var shots, hits int

	for _, summary := range summaries {
		if winner, ok := summary.Cause.Winner(); ok {
			wins[winner]++
		}

		shots += summary.Shots
		hits += summary.Hits

		rewards[0] += summary.TeamRewards[0]
		rewards[1] += summary.TeamRewards[1]
	}

	fmt.Println("")
	fmt.Printf("%s%d episodes%s\n", chalk.Green, len(summaries), chalk.Reset)
	fmt.Printf("%sTeam A%s: %d wins, cumulative reward %.2f\n", chalk.Blue, chalk.Reset, wins[0], rewards[0])
	fmt.Printf("%sTeam B%s: %d wins, cumulative reward %.2f\n", chalk.Red, chalk.Reset, wins[1], rewards[1])
	fmt.Printf("%d hits out of %d shots\n", hits, shots)
}
