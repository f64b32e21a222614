// Command simulate runs a headless bot-only match. It exists for balance
// work and for checking determinism: the same seed and settings must
// produce the same state hash on every run and every platform.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/freeeve/tilefront/api/internal/bot"
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

func main() {
	var (
		width      = flag.Int("width", 128, "map width in tiles")
		height     = flag.Int("height", 96, "map height in tiles")
		seed       = flag.Int64("seed", 1, "map generation seed")
		players    = flag.Int("players", 4, "number of bot players")
		difficulty = flag.String("difficulty", "medium", "bot difficulty (easy or medium)")
		maxTicks   = flag.Int64("ticks", 50000, "tick budget before giving up")
		tuningFile = flag.String("tuning", "", "tuning YAML (default: embedded)")
		verify     = flag.Bool("verify", false, "run twice and compare state hashes")
		verbose    = flag.Bool("v", false, "log simulation events")
	)
	flag.Parse()

	tuning := conquest.DefaultTuning()
	if *tuningFile != "" {
		var err error
		tuning, err = conquest.LoadTuningFile(*tuningFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load tuning: %v\n", err)
			os.Exit(1)
		}
	}

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	first := run(*width, *height, *seed, *players, *difficulty, *maxTicks, tuning, log)
	report(first)

	if *verify {
		second := run(*width, *height, *seed, *players, *difficulty, *maxTicks, tuning, zerolog.Nop())
		if first.hash != second.hash || first.ticks != second.ticks {
			fmt.Fprintf(os.Stderr, "DETERMINISM FAILURE: run 1 hash=%016x ticks=%d, run 2 hash=%016x ticks=%d\n",
				first.hash, first.ticks, second.hash, second.ticks)
			os.Exit(1)
		}
		fmt.Printf("verify: both runs produced hash %016x\n", first.hash)
	}
}

type result struct {
	g      *conquest.Game
	ticks  int64
	hash   uint64
	winner conquest.PlayerID
}

func run(width, height int, seed int64, players int, difficulty string, maxTicks int64, tuning *conquest.Tuning, log zerolog.Logger) result {
	m := conquest.GenerateMap(width, height, seed)
	g := conquest.NewGame(m, tuning, nil, log)

	strategies := make(map[conquest.PlayerID]bot.Strategy, players)
	for i := 0; i < players; i++ {
		p := g.AddPlayer(fmt.Sprintf("bot-%d", i+1), conquest.Team(i), true)
		strategies[p.ID()] = bot.StrategyForDifficulty(difficulty)
	}

	// Plan in player order: intent application order is part of the
	// deterministic state, so map iteration order must not leak in.
	for g.CurrentTick() < maxTicks && !g.Over() {
		for i := 1; i <= players; i++ {
			id := conquest.PlayerID(i)
			p := g.Player(id)
			if p == nil || !p.Alive() {
				continue
			}
			for _, in := range strategies[id].Plan(g, id) {
				g.ApplyIntent(in)
			}
		}
		g.Tick()
	}

	return result{g: g, ticks: g.CurrentTick(), hash: g.Hash(), winner: g.Winner()}
}

func report(r result) {
	fmt.Printf("ticks: %d  hash: %016x\n", r.ticks, r.hash)
	if r.g.Over() {
		w := r.g.Player(r.winner)
		fmt.Printf("winner: %s (%d tiles)\n", w.DisplayName(), w.TileCount())
	} else {
		fmt.Println("no winner within the tick budget")
	}
	for _, p := range r.g.Players() {
		status := "alive"
		if !p.Alive() {
			status = "eliminated"
		}
		fmt.Printf("  %-8s %-10s tiles=%-5d troops=%-8d gold=%d\n",
			p.DisplayName(), status, p.TileCount(), p.Troops(), p.Gold())
	}
}
