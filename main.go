package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"gamesearch/engine"
	"gamesearch/game"
	"gamesearch/game/pig"
	"gamesearch/game/tictactoe"
	"gamesearch/searcher"
)

type config struct {
	Game           string  `yaml:"game"`
	Player1        string  `yaml:"player1"`
	Player2        string  `yaml:"player2"`
	UCTC           float64 `yaml:"uct_c"`
	RolloutCount   int     `yaml:"rollout_count"`
	MaxSimulations int     `yaml:"max_simulations"`
	MaxMemoryMB    int64   `yaml:"max_memory_mb"`
	NumGames       int     `yaml:"num_games"`
	Solve          bool    `yaml:"solve"`
	Seed           uint64  `yaml:"seed"`
	Verbose        bool    `yaml:"verbose"`
	Quiet          bool    `yaml:"quiet"`
}

func defaultConfig() config {
	return config{
		Game:           "tic_tac_toe",
		Player1:        "mcts",
		Player2:        "random",
		UCTC:           2,
		RolloutCount:   10,
		MaxSimulations: 10000,
		NumGames:       1,
		Solve:          true,
	}
}

func parseConfig() (config, error) {
	cfg := defaultConfig()
	configPath := flag.String("config", "", "YAML file with the settings below; other flags are ignored when set")
	flag.StringVar(&cfg.Game, "game", cfg.Game, "game to play: tic_tac_toe or pig")
	flag.StringVar(&cfg.Player1, "player1", cfg.Player1, "who controls player 1: mcts or random")
	flag.StringVar(&cfg.Player2, "player2", cfg.Player2, "who controls player 2: mcts or random")
	flag.Float64Var(&cfg.UCTC, "uct_c", cfg.UCTC, "PUCT exploration constant")
	flag.IntVar(&cfg.RolloutCount, "rollout_count", cfg.RolloutCount, "rollouts per leaf evaluation")
	flag.IntVar(&cfg.MaxSimulations, "max_simulations", cfg.MaxSimulations, "simulations per move")
	flag.Int64Var(&cfg.MaxMemoryMB, "max_memory_mb", cfg.MaxMemoryMB, "soft cap on tree size, 0 = unlimited")
	flag.IntVar(&cfg.NumGames, "num_games", cfg.NumGames, "number of games to play")
	flag.BoolVar(&cfg.Solve, "solve", cfg.Solve, "back-propagate proven outcomes")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for all randomness")
	flag.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "show per-move search stats")
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "only print final results")
	flag.Parse()

	if *configPath != "" {
		cfg = defaultConfig()
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

func newGame(name string) (game.Game, error) {
	switch name {
	case "tic_tac_toe":
		return tictactoe.New(), nil
	case "pig":
		return pig.New(pig.DefaultWinScore), nil
	default:
		return nil, fmt.Errorf("unknown game %q", name)
	}
}

func newBot(kind string, g game.Game, cfg config, seed uint64) (engine.Bot, error) {
	switch kind {
	case "mcts":
		return searcher.NewMCTSBot(g,
			searcher.WithUCTC(cfg.UCTC),
			searcher.WithMaxSimulations(cfg.MaxSimulations),
			searcher.WithMaxMemoryMB(cfg.MaxMemoryMB),
			searcher.WithSolve(cfg.Solve),
			searcher.WithSeed(seed),
			searcher.WithVerbose(cfg.Verbose),
			searcher.WithEvaluator(searcher.NewRandomRolloutEvaluator(cfg.RolloutCount, seed+1)),
		)
	case "random":
		return engine.NewRandomBot(seed), nil
	default:
		return nil, fmt.Errorf("unknown player type %q", kind)
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Quiet {
		level = zerolog.WarnLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	g, err := newGame(cfg.Game)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	profile := termenv.ColorProfile()
	playerStyles := []termenv.Style{
		termenv.String().Foreground(profile.Color("2")), // player 0: green
		termenv.String().Foreground(profile.Color("4")), // player 1: blue
	}

	wins := make([]int, g.NumPlayers())
	draws := 0
	for i := 0; i < cfg.NumGames; i++ {
		// Distinct seeds per game and per seat keep games independent but
		// reproducible from the one configured seed.
		gameSeed := cfg.Seed + uint64(i)*100
		bots := make([]engine.Bot, 0, g.NumPlayers())
		kinds := []string{cfg.Player1, cfg.Player2}
		for seat := 0; seat < g.NumPlayers(); seat++ {
			bot, err := newBot(kinds[seat], g, cfg, gameSeed+uint64(seat)*10)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			bots = append(bots, bot)
		}

		eng, err := engine.New(g, bots, gameSeed+99)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		result, err := eng.Play()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		winner := -1
		for p, ret := range result.Returns {
			if ret > 0 {
				winner = p
				break
			}
		}
		if winner < 0 {
			draws++
			fmt.Printf("game %d: draw (%d moves)\n", i+1, len(result.History))
		} else {
			wins[winner]++
			label := playerStyles[winner%len(playerStyles)].Styled(
				fmt.Sprintf("player %d (%s)", winner+1, kinds[winner]))
			fmt.Printf("game %d: %s wins (%d moves)\n", i+1, label, len(result.History))
		}
	}

	fmt.Printf("\n%s, %d games: ", g.Name(), cfg.NumGames)
	for p, w := range wins {
		fmt.Printf("player %d wins %d, ", p+1, w)
	}
	fmt.Printf("draws %d\n", draws)
}
