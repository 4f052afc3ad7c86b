package services

import (
	"path/filepath"
	"testing"

	"proppool/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv wires the services against a throwaway sqlite store and a miniredis
// instance, mirroring how the application layer wires postgres and redis.
type testEnv struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	pools *PoolService
	props *PropService
	stats *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "proppool_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Pool{},
		&models.Prop{},
		&models.Option{},
		&models.Player{},
		&models.Pick{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	logger := zap.NewNop()
	stats := NewStatsService(db, redisClient, logger)

	return &testEnv{
		db:    db,
		mr:    mr,
		pools: NewPoolService(db, logger),
		props: NewPropService(db, stats, logger),
		stats: stats,
	}
}

// lockedFixture is the concrete scoring scenario: a locked pool with one
// three-option 10-point prop, P1 picked index 0 and P2 picked index 1.
type lockedFixture struct {
	pool   *models.Pool
	prop   *models.Prop
	p1, p2 *models.Player
}

func newLockedFixture(t *testing.T, env *testEnv) *lockedFixture {
	t.Helper()

	pool, err := env.pools.CreatePool(&CreatePoolRequest{Name: "Finals Night", CaptainName: "Sam"})
	if err != nil {
		t.Fatalf("CreatePool: %v", err)
	}
	if _, err := env.pools.OpenPool(pool.ID); err != nil {
		t.Fatalf("OpenPool: %v", err)
	}

	prop, err := env.props.AddProp(pool.ID, &CreatePropRequest{
		Question:   "Who scores first?",
		Options:    []string{"A", "B", "C"},
		PointValue: 10,
	})
	if err != nil {
		t.Fatalf("AddProp: %v", err)
	}

	p1 := joinPlayer(t, env, pool.InviteCode, "P1")
	p2 := joinPlayer(t, env, pool.InviteCode, "P2")

	submitPick(t, env, p1.ID, prop.ID, 0)
	submitPick(t, env, p2.ID, prop.ID, 1)

	if _, err := env.pools.LockPool(pool.ID); err != nil {
		t.Fatalf("LockPool: %v", err)
	}

	return &lockedFixture{pool: pool, prop: prop, p1: p1, p2: p2}
}

func joinPlayer(t *testing.T, env *testEnv, inviteCode, name string) *models.Player {
	t.Helper()
	player, err := env.pools.JoinPool(&JoinPoolRequest{InviteCode: inviteCode, Name: name})
	if err != nil {
		t.Fatalf("JoinPool(%s): %v", name, err)
	}
	return player
}

func submitPick(t *testing.T, env *testEnv, playerID, propID uint, optionIndex int) {
	t.Helper()
	if _, err := env.pools.SubmitPick(playerID, propID, optionIndex); err != nil {
		t.Fatalf("SubmitPick(player=%d, prop=%d, option=%d): %v", playerID, propID, optionIndex, err)
	}
}

func playerTotal(t *testing.T, env *testEnv, playerID uint) int {
	t.Helper()
	var player models.Player
	if err := env.db.First(&player, playerID).Error; err != nil {
		t.Fatalf("load player %d: %v", playerID, err)
	}
	return player.TotalPoints
}

func pickPoints(t *testing.T, env *testEnv, playerID, propID uint) *int {
	t.Helper()
	var pick models.Pick
	err := env.db.Where("player_id = ? AND prop_id = ?", playerID, propID).First(&pick).Error
	if err != nil {
		t.Fatalf("load pick (player=%d, prop=%d): %v", playerID, propID, err)
	}
	return pick.PointsEarned
}

// assertTotalsInvariant checks that every player total in the pool equals the
// sum of their non-null pick points, the invariant the ledger must preserve
// after every resolve/void/delete.
func assertTotalsInvariant(t *testing.T, env *testEnv, poolID uint) {
	t.Helper()

	var players []models.Player
	if err := env.db.Where("pool_id = ?", poolID).Find(&players).Error; err != nil {
		t.Fatalf("load players: %v", err)
	}

	for _, player := range players {
		var picks []models.Pick
		if err := env.db.Where("player_id = ?", player.ID).Find(&picks).Error; err != nil {
			t.Fatalf("load picks for player %d: %v", player.ID, err)
		}
		if want := RecomputePlayerTotal(picks); player.TotalPoints != want {
			t.Errorf("player %s total = %d, want %d", player.Name, player.TotalPoints, want)
		}
	}
}

func intPtr(n int) *int {
	return &n
}
