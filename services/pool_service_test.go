package services

import (
	"errors"
	"testing"

	"proppool/models"
)

func TestPoolLifecycleForwardOnly(t *testing.T) {
	env := newTestEnv(t)

	pool, err := env.pools.CreatePool(&CreatePoolRequest{Name: "Season", CaptainName: "Sam"})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if pool.Status != models.PoolStatusDraft {
		t.Fatalf("new pool status = %q, want draft", pool.Status)
	}
	if pool.InviteCode == "" {
		t.Fatal("invite code should not be empty")
	}
	if pool.CaptainSecret == "" {
		t.Fatal("captain secret should not be empty")
	}

	// Skipping a step is rejected.
	if _, err := env.pools.LockPool(pool.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("LockPool on draft error = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.pools.CompletePool(pool.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("CompletePool on draft error = %v, want ErrInvalidTransition", err)
	}

	for _, step := range []func(uint) (*models.Pool, error){
		env.pools.OpenPool, env.pools.LockPool, env.pools.CompletePool,
	} {
		if _, err := step(pool.ID); err != nil {
			t.Fatalf("lifecycle step: %v", err)
		}
	}

	// Going backward is rejected.
	if _, err := env.pools.OpenPool(pool.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("OpenPool on completed error = %v, want ErrInvalidTransition", err)
	}
	if _, err := env.pools.LockPool(pool.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("LockPool on completed error = %v, want ErrInvalidTransition", err)
	}
}

func TestPoolLifecycleNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.pools.OpenPool(9999); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("OpenPool error = %v, want ErrPoolNotFound", err)
	}
}

func TestJoinPool(t *testing.T) {
	env := newTestEnv(t)

	pool, err := env.pools.CreatePool(&CreatePoolRequest{Name: "Join", CaptainName: "Sam"})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}

	// Drafted pools are not joinable yet.
	if _, err := env.pools.JoinPool(&JoinPoolRequest{InviteCode: pool.InviteCode, Name: "P1"}); !errors.Is(err, ErrPicksClosed) {
		t.Errorf("join draft pool error = %v, want ErrPicksClosed", err)
	}

	if _, err := env.pools.OpenPool(pool.ID); err != nil {
		t.Fatalf("OpenPool: %v", err)
	}

	player := joinPlayer(t, env, pool.InviteCode, "P1")
	if player.Secret == "" {
		t.Error("player secret should not be empty")
	}
	if player.TotalPoints != 0 {
		t.Errorf("new player total = %d, want 0", player.TotalPoints)
	}

	if _, err := env.pools.JoinPool(&JoinPoolRequest{InviteCode: pool.InviteCode, Name: "P1"}); !errors.Is(err, ErrNameTaken) {
		t.Errorf("duplicate name error = %v, want ErrNameTaken", err)
	}
	if _, err := env.pools.JoinPool(&JoinPoolRequest{InviteCode: "nope99", Name: "P2"}); !errors.Is(err, ErrPoolNotFound) {
		t.Errorf("bad invite code error = %v, want ErrPoolNotFound", err)
	}
}

func TestSubmitPickUpsert(t *testing.T) {
	env := newTestEnv(t)

	pool, _ := env.pools.CreatePool(&CreatePoolRequest{Name: "Picks", CaptainName: "Sam"})
	if _, err := env.pools.OpenPool(pool.ID); err != nil {
		t.Fatalf("OpenPool: %v", err)
	}
	prop, err := env.props.AddProp(pool.ID, &CreatePropRequest{
		Question:   "Pick one",
		Options:    []string{"A", "B", "C"},
		PointValue: 10,
	})
	if err != nil {
		t.Fatalf("AddProp: %v", err)
	}
	player := joinPlayer(t, env, pool.InviteCode, "P1")

	submitPick(t, env, player.ID, prop.ID, 0)
	submitPick(t, env, player.ID, prop.ID, 2)

	var picks []models.Pick
	if err := env.db.Where("player_id = ?", player.ID).Find(&picks).Error; err != nil {
		t.Fatalf("load picks: %v", err)
	}
	if len(picks) != 1 {
		t.Fatalf("pick rows = %d, want 1 (resubmission upserts)", len(picks))
	}
	if picks[0].SelectedOptionIndex != 2 {
		t.Errorf("selected index = %d, want 2", picks[0].SelectedOptionIndex)
	}
	if picks[0].PointsEarned != nil {
		t.Errorf("points earned = %v, want nil before resolution", *picks[0].PointsEarned)
	}
}

func TestSubmitPickValidation(t *testing.T) {
	env := newTestEnv(t)

	pool, _ := env.pools.CreatePool(&CreatePoolRequest{Name: "Guard", CaptainName: "Sam"})
	if _, err := env.pools.OpenPool(pool.ID); err != nil {
		t.Fatalf("OpenPool: %v", err)
	}
	prop, err := env.props.AddProp(pool.ID, &CreatePropRequest{
		Question:   "Guarded",
		Options:    []string{"A", "B"},
		PointValue: 10,
	})
	if err != nil {
		t.Fatalf("AddProp: %v", err)
	}
	player := joinPlayer(t, env, pool.InviteCode, "P1")

	if _, err := env.pools.SubmitPick(player.ID, prop.ID, 2); !errors.Is(err, ErrInvalidOption) {
		t.Errorf("out-of-range pick error = %v, want ErrInvalidOption", err)
	}
	if _, err := env.pools.SubmitPick(9999, prop.ID, 0); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("unknown player error = %v, want ErrPlayerNotFound", err)
	}
	if _, err := env.pools.SubmitPick(player.ID, 9999, 0); !errors.Is(err, ErrPropNotFound) {
		t.Errorf("unknown prop error = %v, want ErrPropNotFound", err)
	}

	// A prop from another pool is invisible to this player.
	other, _ := env.pools.CreatePool(&CreatePoolRequest{Name: "Other", CaptainName: "Kim"})
	otherProp, err := env.props.AddProp(other.ID, &CreatePropRequest{
		Question:   "Elsewhere",
		Options:    []string{"A", "B"},
		PointValue: 10,
	})
	if err != nil {
		t.Fatalf("AddProp other pool: %v", err)
	}
	if _, err := env.pools.SubmitPick(player.ID, otherProp.ID, 0); !errors.Is(err, ErrPropNotFound) {
		t.Errorf("cross-pool pick error = %v, want ErrPropNotFound", err)
	}

	// Locking freezes picks.
	if _, err := env.pools.LockPool(pool.ID); err != nil {
		t.Fatalf("LockPool: %v", err)
	}
	if _, err := env.pools.SubmitPick(player.ID, prop.ID, 0); !errors.Is(err, ErrPicksClosed) {
		t.Errorf("pick on locked pool error = %v, want ErrPicksClosed", err)
	}
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	fx := newLockedFixture(t, env)

	if _, _, err := env.props.ResolveProp(fx.prop.ID, 1); err != nil {
		t.Fatalf("ResolveProp: %v", err)
	}

	players, err := env.pools.Leaderboard(fx.pool.ID)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(players) != 2 {
		t.Fatalf("leaderboard size = %d, want 2", len(players))
	}
	if players[0].Name != "P2" || players[0].TotalPoints != 10 {
		t.Errorf("leader = %s (%d), want P2 (10)", players[0].Name, players[0].TotalPoints)
	}

	// Removed players drop off the board but keep their picks.
	if err := env.pools.RemovePlayer(fx.p2.ID); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	players, err = env.pools.Leaderboard(fx.pool.ID)
	if err != nil {
		t.Fatalf("Leaderboard after removal: %v", err)
	}
	if len(players) != 1 || players[0].Name != "P1" {
		t.Fatalf("leaderboard after removal = %v, want just P1", players)
	}
	if pts := pickPoints(t, env, fx.p2.ID, fx.prop.ID); pts == nil {
		t.Error("removed player's pick should survive")
	}
}

func TestRemovePlayerNotFound(t *testing.T) {
	env := newTestEnv(t)
	if err := env.pools.RemovePlayer(9999); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("RemovePlayer error = %v, want ErrPlayerNotFound", err)
	}
}
