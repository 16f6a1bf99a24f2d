package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voxelforge/chronicle/action"
	"github.com/voxelforge/chronicle/cache"
	"github.com/voxelforge/chronicle/lookup"
	"github.com/voxelforge/chronicle/queue"
	"github.com/voxelforge/chronicle/rollback"
	"github.com/voxelforge/chronicle/scheduler"
	"github.com/voxelforge/chronicle/store"
	"github.com/voxelforge/chronicle/testutil"
	"github.com/voxelforge/chronicle/tracking"
	"github.com/voxelforge/chronicle/world"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func nopLogger() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

// env wires the full engine stack against an in-memory database and a
// single mem world named "world", the way main assembles it.
type env struct {
	store    *store.LogStore
	trackers *tracking.Set
	worlds   *world.MemProvider
	cache    cache.Cache
	queue    *queue.Serial
	sched    *scheduler.Scheduler
	svc      *lookup.Service
	orch     *rollback.Orchestrator
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	q := queue.NewSerial(64, nopLogger())
	sched := scheduler.New(nopLogger())
	t.Cleanup(func() {
		sched.Stop()
		q.Close()
	})
	worlds := world.NewMemProvider("world")
	st := store.NewLogStore(db, nopLogger())
	trackers := tracking.NewSet(tracking.Deps{
		Store:        st,
		Queue:        q,
		Worlds:       worlds,
		Sched:        sched,
		Logger:       nopLogger(),
		TickDuration: time.Millisecond,
	})
	limits := store.Limits{DefaultRadius: 10, MaxRadius: 250}
	return &env{
		store:    st,
		trackers: trackers,
		worlds:   worlds,
		cache:    c,
		queue:    q,
		sched:    sched,
		svc:      lookup.New(st, c, limits, 4, nopLogger()),
		orch:     rollback.New(st, trackers, worlds, c, limits, 25000, nopLogger()),
	}
}

// waitIdle blocks until the serial write queue has drained.
func (e *env) waitIdle(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.queue.Idle() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("write queue did not drain")
}

var stone = world.BlockState{Name: "stone"}

// griefBlock records actor breaking stone at pos and applies the break
// to the mem world, leaving a change a rollback can revert.
func (e *env) griefBlock(t *testing.T, actor world.Actor, pos world.Vec3) {
	t.Helper()
	w := e.worlds.Mem("world")
	w.SetBlock(pos, stone)
	err := e.trackers.Blocks.LogByEntity(context.Background(), actor, "world", pos,
		stone, world.BlockState{}, action.Break)
	require.NoError(t, err)
	e.waitIdle(t)
	w.SetBlock(pos, world.BlockState{})
}

func doGet(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doPost(r *gin.Engine, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
