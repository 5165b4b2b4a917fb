// Package experiments benchmarks bot configurations against each other and
// records the results as CSV.
package experiments

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"gamesearch/engine"
	"gamesearch/game"
	"gamesearch/searcher"
)

// AgentConfig is one search configuration under test.
type AgentConfig struct {
	ID             int
	UCTC           float64
	MaxSimulations int
	RolloutCount   int
	Solve          bool
	Seed           uint64
}

// GameRecord is the outcome of one benchmark game.
type GameRecord struct {
	ID        int
	Agent1    int // AgentConfig.ID
	Agent2    int
	Returns   []float64
	NumMoves  int
	StartTime time.Time
	Duration  time.Duration
}

// MoveRecord is one search during a benchmark game.
type MoveRecord struct {
	Game   int // GameRecord.ID
	Move   int
	Player int
	Action string
	searcher.SearchMetrics
}

func newBot(g game.Game, config AgentConfig, seedOffset uint64) (*searcher.MCTSBot, error) {
	rollouts := config.RolloutCount
	if rollouts <= 0 {
		rollouts = 1
	}
	seed := config.Seed + seedOffset
	return searcher.NewMCTSBot(g,
		searcher.WithUCTC(config.UCTC),
		searcher.WithMaxSimulations(config.MaxSimulations),
		searcher.WithSolve(config.Solve),
		searcher.WithSeed(seed),
		searcher.WithEvaluator(searcher.NewRandomRolloutEvaluator(rollouts, seed+1)),
	)
}

// Run plays every matchup for the given number of games and writes agent,
// game and move records under a timestamped directory below baseDir.
func Run(g game.Game, configs []AgentConfig, matchups [][2]AgentConfig, gamesPerMatchup int, baseDir string) error {
	writer, err := NewWriter(baseDir)
	if err != nil {
		return err
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return err
	}

	var gameRecords []GameRecord
	var moveRecords []MoveRecord
	gameID := 0
	for _, matchup := range matchups {
		log.Info().Int("agent1", matchup[0].ID).Int("agent2", matchup[1].ID).
			Int("games", gamesPerMatchup).Msg("running matchup")
		for i := 0; i < gamesPerMatchup; i++ {
			gameID++
			record, moves, err := playGame(g, matchup, gameID, uint64(gameID))
			if err != nil {
				return fmt.Errorf("matchup %d vs %d game %d: %w",
					matchup[0].ID, matchup[1].ID, i+1, err)
			}
			gameRecords = append(gameRecords, record)
			moveRecords = append(moveRecords, moves...)
		}
	}

	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return err
	}
	return writer.WriteMoveRecords(moveRecords)
}

func playGame(g game.Game, matchup [2]AgentConfig, gameID int, seedOffset uint64) (GameRecord, []MoveRecord, error) {
	bots := make([]engine.Bot, 0, 2)
	for _, config := range matchup {
		bot, err := newBot(g, config, seedOffset)
		if err != nil {
			return GameRecord{}, nil, err
		}
		bots = append(bots, bot)
	}

	eng, err := engine.New(g, bots, seedOffset)
	if err != nil {
		return GameRecord{}, nil, err
	}
	start := time.Now()
	result, err := eng.Play()
	if err != nil {
		return GameRecord{}, nil, err
	}

	record := GameRecord{
		ID:        gameID,
		Agent1:    matchup[0].ID,
		Agent2:    matchup[1].ID,
		Returns:   result.Returns,
		NumMoves:  len(result.History),
		StartTime: start,
		Duration:  result.Duration,
	}
	moves := make([]MoveRecord, 0, len(result.Moves))
	for _, move := range result.Moves {
		moves = append(moves, MoveRecord{
			Game:          gameID,
			Move:          move.Move,
			Player:        int(move.Player),
			Action:        move.Action,
			SearchMetrics: move.Metrics,
		})
	}
	return record, moves, nil
}
