package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/freeeve/tilefront/api/internal/model"
	"github.com/freeeve/tilefront/api/internal/repository"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameNotWaiting = errors.New("game is not in waiting status")
	ErrGameNotActive  = errors.New("game is not active")
	ErrGameFull       = errors.New("game is full")
	ErrNotEnough      = errors.New("need at least 2 players to start")
	ErrNotCreator     = errors.New("only the creator can do this")
	ErrAlreadyJoined  = errors.New("already joined this game")
	ErrBadDifficulty  = errors.New("invalid difficulty: must be easy or medium")
)

// Map size limits. The owner grid is width*height uint16s, so even the
// maximum is only a few hundred KB per game.
const (
	minMapDim      = 32
	maxMapDim      = 512
	defaultMapW    = 128
	defaultMapH    = 96
	defaultMaxSeat = 8
	maxSeats       = 16
)

// GameService handles the game lobby: creating games, seating players and
// bots, and flipping a lobby into a running simulation.
type GameService struct {
	gameRepo repository.GameRepository
	userRepo repository.UserRepository
	runners  *RunnerManager
}

// NewGameService creates a GameService. The runner manager may be nil for
// lobby-only use in tests.
func NewGameService(gameRepo repository.GameRepository, userRepo repository.UserRepository, runners *RunnerManager) *GameService {
	return &GameService{gameRepo: gameRepo, userRepo: userRepo, runners: runners}
}

// CreateGameParams are the client-supplied knobs for a new game.
type CreateGameParams struct {
	Name       string
	MapSeed    int64
	MapWidth   int
	MapHeight  int
	MaxPlayers int
	// Bots is how many bot seats to fill immediately.
	Bots          int
	BotDifficulty string
}

// CreateGame creates a new game in "waiting" status with the creator
// seated, plus any requested bots.
func (s *GameService) CreateGame(ctx context.Context, creatorID string, p CreateGameParams) (*model.Game, error) {
	if p.MapWidth == 0 {
		p.MapWidth = defaultMapW
	}
	if p.MapHeight == 0 {
		p.MapHeight = defaultMapH
	}
	if p.MapWidth < minMapDim || p.MapWidth > maxMapDim || p.MapHeight < minMapDim || p.MapHeight > maxMapDim {
		return nil, fmt.Errorf("map dimensions must be between %d and %d", minMapDim, maxMapDim)
	}
	if p.MaxPlayers == 0 {
		p.MaxPlayers = defaultMaxSeat
	}
	if p.MaxPlayers < 2 || p.MaxPlayers > maxSeats {
		return nil, fmt.Errorf("max_players must be between 2 and %d", maxSeats)
	}
	if p.MapSeed == 0 {
		p.MapSeed = rand.Int63()
	}
	if p.Bots > p.MaxPlayers-1 {
		p.Bots = p.MaxPlayers - 1
	}

	game, err := s.gameRepo.Create(ctx, p.Name, creatorID, p.MapSeed, p.MapWidth, p.MapHeight, p.MaxPlayers)
	if err != nil {
		return nil, err
	}

	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID, 0); err != nil {
		return nil, err
	}

	for i := 1; i <= p.Bots; i++ {
		if err := s.addBot(ctx, game.ID, i, p.BotDifficulty); err != nil {
			return nil, err
		}
	}

	return s.gameRepo.FindByID(ctx, game.ID)
}

func (s *GameService) addBot(ctx context.Context, gameID string, n int, difficulty string) error {
	// Bot users are shared rows keyed by a synthetic provider ID, so the
	// same bot identity can sit in many games.
	botUser, err := s.userRepo.Upsert(ctx, "bot", fmt.Sprintf("bot-%d", n), fmt.Sprintf("Bot %d", n), "")
	if err != nil {
		return fmt.Errorf("create bot user %d: %w", n, err)
	}
	if err := s.gameRepo.JoinGameAsBot(ctx, gameID, botUser.ID, difficulty); err != nil {
		return fmt.Errorf("seat bot %d: %w", n, err)
	}
	return nil
}

// JoinGame seats a player in a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string, team int) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
	}
	if len(game.Players) >= game.MaxPlayers {
		return ErrGameFull
	}
	return s.gameRepo.JoinGame(ctx, gameID, userID, team)
}

// AddBot seats a bot in a waiting game. Creator only.
func (s *GameService) AddBot(ctx context.Context, gameID, userID, difficulty string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	if len(game.Players) >= game.MaxPlayers {
		return ErrGameFull
	}
	return s.addBot(ctx, gameID, len(game.Players)+1, difficulty)
}

// StartGame assigns player numbers in join order, marks the game active,
// and launches the simulation.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) < 2 {
		return nil, ErrNotEnough
	}

	// Player numbers are the simulation owner IDs. They are assigned from
	// join order, which ListPlayers returns stably, so a restarted server
	// rebuilds the same mapping.
	nums := make(map[string]int, len(game.Players))
	for i, p := range game.Players {
		nums[p.UserID] = i + 1
	}
	if err := s.gameRepo.AssignPlayerNums(ctx, gameID, nums); err != nil {
		return nil, err
	}
	if err := s.gameRepo.SetStarted(ctx, gameID); err != nil {
		return nil, err
	}

	game, err = s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if s.runners != nil {
		if err := s.runners.Launch(ctx, game); err != nil {
			return nil, fmt.Errorf("launch simulation: %w", err)
		}
	}
	return game, nil
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns open games, the user's games, or finished games.
func (s *GameService) ListGames(ctx context.Context, userID, filter string) ([]model.Game, error) {
	switch filter {
	case "my":
		return s.gameRepo.ListByUser(ctx, userID)
	case "finished":
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// UpdateBotDifficulty validates and updates a bot's difficulty level.
func (s *GameService) UpdateBotDifficulty(ctx context.Context, gameID, userID, botUserID, difficulty string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	switch difficulty {
	case "easy", "medium":
	default:
		return ErrBadDifficulty
	}
	return s.gameRepo.UpdateBotDifficulty(ctx, gameID, botUserID, difficulty)
}

// DeleteGame removes a waiting game. Creator only.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// StopGame ends an active game without a winner. Creator only.
func (s *GameService) StopGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}

	if s.runners != nil {
		s.runners.Stop(ctx, gameID)
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}
