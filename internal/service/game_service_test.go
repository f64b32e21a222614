package service

import (
	"context"
	"errors"
	"testing"
)

func newTestService() (*GameService, *mockGameRepo, *mockUserRepo) {
	gameRepo := newMockGameRepo()
	userRepo := newMockUserRepo()
	return NewGameService(gameRepo, userRepo, nil), gameRepo, userRepo
}

func mustCreate(t *testing.T, svc *GameService, creatorID string, p CreateGameParams) string {
	t.Helper()
	g, err := svc.CreateGame(context.Background(), creatorID, p)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g.ID
}

func TestCreateGameDefaults(t *testing.T) {
	svc, _, _ := newTestService()

	g, err := svc.CreateGame(context.Background(), "creator", CreateGameParams{Name: "Test"})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.MapWidth != defaultMapW || g.MapHeight != defaultMapH {
		t.Fatalf("expected default map size, got %dx%d", g.MapWidth, g.MapHeight)
	}
	if g.MaxPlayers != defaultMaxSeat {
		t.Fatalf("expected default max players, got %d", g.MaxPlayers)
	}
	if g.MapSeed == 0 {
		t.Fatal("expected a random seed to be chosen")
	}
	if len(g.Players) != 1 || g.Players[0].UserID != "creator" {
		t.Fatalf("creator should be seated: %+v", g.Players)
	}
}

func TestCreateGameWithBots(t *testing.T) {
	svc, _, _ := newTestService()

	g, err := svc.CreateGame(context.Background(), "creator", CreateGameParams{
		Name: "Bots", Bots: 3, BotDifficulty: "medium",
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if len(g.Players) != 4 {
		t.Fatalf("expected creator + 3 bots, got %d players", len(g.Players))
	}
	bots := 0
	for _, p := range g.Players {
		if p.IsBot {
			bots++
			if p.BotDifficulty != "medium" {
				t.Fatalf("bot difficulty not applied: %s", p.BotDifficulty)
			}
		}
	}
	if bots != 3 {
		t.Fatalf("expected 3 bots, got %d", bots)
	}
}

func TestCreateGameClampsBotsToSeats(t *testing.T) {
	svc, _, _ := newTestService()

	g, err := svc.CreateGame(context.Background(), "creator", CreateGameParams{
		Name: "Small", MaxPlayers: 2, Bots: 5,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if len(g.Players) != 2 {
		t.Fatalf("bots should be clamped to available seats, got %d players", len(g.Players))
	}
}

func TestCreateGameValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, "u", CreateGameParams{Name: "x", MapWidth: 10, MapHeight: 96}); err == nil {
		t.Fatal("expected error for tiny map")
	}
	if _, err := svc.CreateGame(ctx, "u", CreateGameParams{Name: "x", MapWidth: 4096}); err == nil {
		t.Fatal("expected error for huge map")
	}
	if _, err := svc.CreateGame(ctx, "u", CreateGameParams{Name: "x", MaxPlayers: 1}); err == nil {
		t.Fatal("expected error for single-seat game")
	}
	if _, err := svc.CreateGame(ctx, "u", CreateGameParams{Name: "x", MaxPlayers: 100}); err == nil {
		t.Fatal("expected error for too many seats")
	}
}

func TestJoinGame(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Join", MaxPlayers: 2})

	if err := svc.JoinGame(ctx, id, "p2", 1); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := svc.JoinGame(ctx, id, "p2", 1); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	if err := svc.JoinGame(ctx, id, "p3", 0); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}
	if err := svc.JoinGame(ctx, "missing", "p4", 0); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestJoinGameRejectsStarted(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Started"})
	repo.games[id].Status = "active"

	if err := svc.JoinGame(ctx, id, "late", 0); !errors.Is(err, ErrGameNotWaiting) {
		t.Fatalf("expected ErrGameNotWaiting, got %v", err)
	}
}

func TestAddBotCreatorOnly(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Bots"})

	if err := svc.AddBot(ctx, id, "stranger", "easy"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := svc.AddBot(ctx, id, "creator", "easy"); err != nil {
		t.Fatalf("creator add bot: %v", err)
	}

	g, _ := svc.GetGame(ctx, id)
	if len(g.Players) != 2 || !g.Players[1].IsBot {
		t.Fatalf("expected a seated bot: %+v", g.Players)
	}
}

func TestStartGameAssignsNumsInJoinOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Start"})
	svc.JoinGame(ctx, id, "second", 0)
	svc.JoinGame(ctx, id, "third", 1)

	g, err := svc.StartGame(ctx, id, "creator")
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if g.Status != "active" {
		t.Fatalf("expected active status, got %s", g.Status)
	}

	want := map[string]int{"creator": 1, "second": 2, "third": 3}
	for _, p := range g.Players {
		if p.PlayerNum != want[p.UserID] {
			t.Fatalf("player %s: expected num %d, got %d", p.UserID, want[p.UserID], p.PlayerNum)
		}
	}
}

func TestStartGameChecks(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Checks"})

	if _, err := svc.StartGame(ctx, id, "creator"); !errors.Is(err, ErrNotEnough) {
		t.Fatalf("expected ErrNotEnough with one player, got %v", err)
	}
	svc.JoinGame(ctx, id, "second", 0)
	if _, err := svc.StartGame(ctx, id, "second"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}

	if _, err := svc.StartGame(ctx, id, "creator"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.StartGame(ctx, id, "creator"); !errors.Is(err, ErrGameNotWaiting) {
		t.Fatalf("expected ErrGameNotWaiting on double start, got %v", err)
	}
}

func TestDeleteGame(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Del"})

	if err := svc.DeleteGame(ctx, id, "stranger"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := svc.DeleteGame(ctx, id, "creator"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetGame(ctx, id); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected game gone, got %v", err)
	}
}

func TestStopGame(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Stop"})

	if _, err := svc.StopGame(ctx, id, "creator"); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("expected ErrGameNotActive for waiting game, got %v", err)
	}

	repo.games[id].Status = "active"
	g, err := svc.StopGame(ctx, id, "creator")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if g.Status != "finished" || g.Winner != "" {
		t.Fatalf("stopped game should finish without a winner: %+v", g)
	}
}

func TestListGamesFilters(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	open := mustCreate(t, svc, "alice", CreateGameParams{Name: "Open"})
	finished := mustCreate(t, svc, "bob", CreateGameParams{Name: "Done"})
	repo.games[finished].Status = "finished"

	openGames, _ := svc.ListGames(ctx, "alice", "")
	if len(openGames) != 1 || openGames[0].ID != open {
		t.Fatalf("expected only the open game: %+v", openGames)
	}

	mine, _ := svc.ListGames(ctx, "alice", "my")
	if len(mine) != 1 || mine[0].ID != open {
		t.Fatalf("expected alice's game: %+v", mine)
	}

	done, _ := svc.ListGames(ctx, "alice", "finished")
	if len(done) != 1 || done[0].ID != finished {
		t.Fatalf("expected the finished game: %+v", done)
	}
}

func TestUpdateBotDifficulty(t *testing.T) {
	svc, _, userRepo := newTestService()
	ctx := context.Background()
	id := mustCreate(t, svc, "creator", CreateGameParams{Name: "Diff", Bots: 1})

	var botID string
	for _, u := range userRepo.users {
		if u.Provider == "bot" {
			botID = u.ID
		}
	}

	if err := svc.UpdateBotDifficulty(ctx, id, "creator", botID, "hard"); !errors.Is(err, ErrBadDifficulty) {
		t.Fatalf("expected ErrBadDifficulty, got %v", err)
	}
	if err := svc.UpdateBotDifficulty(ctx, id, "stranger", botID, "medium"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected ErrNotCreator, got %v", err)
	}
	if err := svc.UpdateBotDifficulty(ctx, id, "creator", botID, "medium"); err != nil {
		t.Fatalf("update difficulty: %v", err)
	}
}
