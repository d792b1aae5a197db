package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/ttacon/chalk"

	"github.com/bytearena/skirmish/common/replay"
	"github.com/bytearena/skirmish/common/utils"
	"github.com/bytearena/skirmish/game/skirmish"
)

func main() {
	filename := flag.String("file", "", "Record file written by arena-trainer or arena-server; required")
	follow := flag.Bool("follow", false, "Print every frame")
	tps := flag.Int("tps", 0, "Frames per second when following; 0 prints as fast as possible")

	flag.Parse()

	if *filename == "" {
		utils.FailWith(utils.NewConfigError("replay", errors.New("file must be set")))
	}

	record, err := replay.Load(*filename)
	if err != nil {
		utils.FailWith(err)
	}

	fmt.Printf("%sRecord of %s%s, teams %dv%d, seed %d, %d frames\n",
		chalk.Green, record.Metadata.Date, chalk.Reset,
		record.Metadata.TeamSizes[0], record.Metadata.TeamSizes[1],
		record.Metadata.Seed, len(record.Frames),
	)

	if *follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var interval time.Duration
		if *tps > 0 {
			interval = time.Second / time.Duration(*tps)
		}

		err := record.Play(ctx, interval, printFrame)
		if err != nil && err != context.Canceled {
			utils.FailWith(err)
		}
	}

	for i, episode := range record.Episodes() {
		cause := episode.Cause.String()
		if !episode.Ended() {
			cause = "unfinished"
		}

		fmt.Printf("#%-4d ticks %6d-%-6d %-18s reward A %5.2f B %5.2f hits %d\n",
			i+1, episode.FirstTick, episode.LastTick, cause,
			episode.TeamRewards[0], episode.TeamRewards[1], episode.Hits,
		)
	}
}

func printFrame(frame skirmish.Frame) {
	fmt.Printf("%stick %d%s", chalk.Cyan, frame.Tick, chalk.Reset)

	for _, agent := range frame.Agents {
		if !agent.Active {
			fmt.Printf("  %s: out", agent.PlayerID)
			continue
		}

		fmt.Printf("  %s: (%.1f, %.1f) ammo %d", agent.PlayerID, agent.Position.GetX(), agent.Position.GetY(), agent.Ammo)
	}

	fmt.Println("")

	for _, event := range frame.Events {
		fmt.Printf("  %s%s hit %s%s\n", chalk.Red, event.FirerPlayerID, event.TargetPlayerID, chalk.Reset)
	}

	if frame.Cause != skirmish.EpisodeRunning {
		fmt.Printf("  %sepisode ended: %s%s\n", chalk.Yellow, frame.Cause, chalk.Reset)
	}
}
