package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	notify "github.com/bitly/go-notify"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/bytearena/skirmish/arenaserver"
	"github.com/bytearena/skirmish/arenatrainer"
	"github.com/bytearena/skirmish/common/config"
	"github.com/bytearena/skirmish/common/healthcheck"
	"github.com/bytearena/skirmish/common/influxdb"
	"github.com/bytearena/skirmish/common/recording"
	"github.com/bytearena/skirmish/common/store"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

func main() {
	configFile := flag.String("config", "", "Configuration file (json, yaml or toml)")
	addr := flag.String("addr", "", "Address serving the controllers; overrides the configuration")
	tps := flag.Int("tps", 0, "Ticks per second; 0 ticks as fast as the controllers answer")
	timeout := flag.Int("timeout", 0, "Limit the time of the session (in minutes); 0 disables the limit")
	recordFile := flag.String("record-file", "", "Destination file for recording the session")
	jsonLogs := flag.Bool("json-logs", false, "Write logs as JSON lines")

	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		utils.FailWith(utils.NewConfigError("config", err))
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if *recordFile != "" {
		cfg.Record = true
		cfg.RecordFile = *recordFile
	}

	if *jsonLogs {
		utils.SetLogOutput(os.Stderr)
	}

	if err := utils.SetLogLevel(cfg.LogLevel); err != nil {
		utils.FailWith(utils.NewConfigError("logLevel", err))
	}

	utils.Logger().Info().Str("service", "arena-server").Str("version", utils.GetVersion()).Msg("starting")

	game, err := cfg.NewGame()
	if err != nil {
		utils.FailWith(utils.NewConfigError("game", err))
	}

	var fallback arenatrainer.Policy
	if cfg.Heuristic {
		fallback = arenatrainer.NewHeuristicPolicy(game.GetConfig().Weapon)
	} else {
		fallback = arenatrainer.NewRandomPolicy(rand.New(rand.NewSource(cfg.Seed)))
	}

	health := healthcheck.NewHealthCheck()

	opts := []arenaserver.Option{arenaserver.WithHealthCheck(health)}
	if *tps > 0 {
		opts = append(opts, arenaserver.WithTickInterval(time.Second/time.Duration(*tps)))
	}

	srv := arenaserver.NewServer(game, fallback, cfg.Server.ActionTimeout, opts...)
	health.Register("ticks", tickWatchdog(srv, 10*time.Second+cfg.Server.ActionTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*timeout)*time.Minute)
		defer cancel()
	}

	var wg sync.WaitGroup

	recordID := uuid.NewV4().String()
	var recorder recording.Recorder = recording.MakeEmptyRecorder()
	if cfg.Record {
		recorder = recording.MakeSingleArenaRecorder(cfg.RecordFile)

		metadata := recording.MakeRecordMetadata(game.GetArena(), cfg.TeamSizes, cfg.TickDuration, cfg.Seed)
		if err := recorder.RecordMetadata(recordID, metadata); err != nil {
			utils.FailWith(err)
		}

		frames := make(chan interface{}, 1024)
		notify.Start(arenaserver.EventFrame, frames)

		wg.Add(1)
		go func() {
			defer wg.Done()
			recordFrames(ctx, recorder, recordID, frames)
		}()
	}

	metrics := influxdb.NewClient("arena-server", influxdb.Options{
		URL:    cfg.Influx.URL,
		Token:  cfg.Influx.Token,
		Org:    cfg.Influx.Org,
		Bucket: cfg.Influx.Bucket,
	})
	defer metrics.TearDown()

	metrics.Loop(func() {
		status := srv.GetStatus()

		connected := 0
		for _, agent := range status.Agents {
			if agent.Connected {
				connected++
			}
		}

		metrics.WriteAppMetric("server", map[string]interface{}{
			"tick":      status.Tick,
			"episode":   status.Episode,
			"connected": connected,
			"agents":    len(status.Agents),
		})
	})

	var ledger *store.Store
	if cfg.Store.Path != "" {
		ledger, err = store.Open(cfg.Store.Path)
		if err != nil {
			utils.FailWith(utils.NewConfigError("store", err))
		}

		defer ledger.Close()
		health.Register("store", ledger.Ping)
	}

	episodes := make(chan interface{}, 16)
	notify.Start(arenaserver.EventEpisode, episodes)

	wg.Add(1)
	go func() {
		defer wg.Done()
		storeEpisodes(ctx, ledger, metrics, episodes)
	}()

	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
			utils.Logger().Error().Err(err).Str("service", "arena-server").Msg("http server failed")
			stop()
		}
	}()

	runErr := srv.Run(ctx)

	if !utils.WaitTimeout(&wg, 5*time.Second) {
		utils.Warn("arena-server", "listeners did not stop in time")
	}

	if err := recorder.Close(recordID); err != nil {
		utils.Logger().Warn().Err(err).Str("service", "arena-server").Msg("could not write the record")
	}
	recorder.Stop()

	if runErr != nil && runErr != context.Canceled && runErr != context.DeadlineExceeded {
		utils.FailWith(runErr)
	}

	utils.Logger().Info().Str("service", "arena-server").Msg("stopped")
}

// tickWatchdog fails when the game has not advanced for longer than stall
func tickWatchdog(srv *arenaserver.Server, stall time.Duration) healthcheck.Checker {
	var lock sync.Mutex
	lastTick := -1
	lastChange := time.Now()

	return func() error {
		lock.Lock()
		defer lock.Unlock()

		tick := srv.GetStatus().Tick
		if tick != lastTick {
			lastTick = tick
			lastChange = time.Now()
			return nil
		}

		if time.Since(lastChange) > stall {
			return errors.Errorf("no tick since %s", lastChange.Format(time.RFC3339))
		}

		return nil
	}
}

func recordFrames(ctx context.Context, recorder recording.Recorder, recordID string, frames chan interface{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-frames:
			msg, err := json.Marshal(data)
			if err != nil {
				utils.Logger().Warn().Err(err).Str("service", "recorder").Msg("could not serialize frame")
				continue
			}

			if err := recorder.Record(recordID, string(msg)); err != nil {
				utils.Logger().Warn().Err(err).Str("service", "recorder").Msg("could not record frame")
			}
		}
	}
}

func storeEpisodes(ctx context.Context, ledger *store.Store, metrics *influxdb.Client, episodes chan interface{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-episodes:
			summary, ok := data.(skirmish.EpisodeSummary)
			if !ok {
				continue
			}

			metrics.WriteAppMetric("episode", map[string]interface{}{
				"number":  summary.Number,
				"steps":   summary.Steps,
				"cause":   summary.Cause.String(),
				"rewardA": summary.TeamRewards[0],
				"rewardB": summary.TeamRewards[1],
				"hits":    summary.Hits,
				"shots":   summary.Shots,
				"reloads": summary.Reloads,
			})

			if ledger == nil {
				continue
			}

			if _, err := ledger.SaveEpisode(summary); err != nil {
				utils.Logger().Warn().Err(err).Str("service", "store").Msg("could not store episode")
			}
		}
	}
}
