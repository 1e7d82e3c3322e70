package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.switcher/internal/game"
	"sudooom.switcher/internal/game/switcher"
	"sudooom.switcher/internal/game/switcher/core"
	"sudooom.switcher/pkg/proto"
)

// fakeStore 按 Revision 条件写入；conflicts 大于 0 时模拟其他实例抢先写入
type fakeStore struct {
	mu        sync.Mutex
	states    map[string]*switcher.State
	conflicts int
}

func (s *fakeStore) Load(ctx context.Context, gameID string) (*switcher.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[gameID]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return st.Clone(), nil
}

func (s *fakeStore) Save(ctx context.Context, state *switcher.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.states[state.ID]
	if ok && s.conflicts > 0 {
		s.conflicts--
		cur.Revision++
	}
	if ok && cur.Revision != state.Revision {
		return game.ErrVersionConflict
	}
	state.Revision++
	s.states[state.ID] = state.Clone()
	return nil
}

func (s *fakeStore) Version(ctx context.Context, gameID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[gameID]
	if !ok {
		return 0, game.ErrGameNotFound
	}
	return st.Revision, nil
}

func (s *fakeStore) Delete(ctx context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, gameID)
	return nil
}

type fakeLocker struct {
	err      error
	locked   map[string]bool
	released int
}

func (l *fakeLocker) Lock(ctx context.Context, gameID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.locked[gameID] {
		return nil, errors.New("already locked")
	}
	l.locked[gameID] = true
	return func() {
		l.locked[gameID] = false
		l.released++
	}, nil
}

type publishedEvent struct {
	gameID  string
	typ     string
	payload any
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, gameID, eventType string, payload any) error {
	p.events = append(p.events, publishedEvent{gameID: gameID, typ: eventType, payload: payload})
	return nil
}

func (p *fakePublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.typ)
	}
	return out
}

func (p *fakePublisher) reset() {
	p.events = nil
}

type fakeViews struct {
	views map[string]*proto.GameView
}

func (v *fakeViews) Set(ctx context.Context, view *proto.GameView) error {
	v.views[view.Id] = view
	return nil
}

func (v *fakeViews) Get(ctx context.Context, gameID string) (*proto.GameView, error) {
	view, ok := v.views[gameID]
	if !ok {
		return nil, errors.New("not cached")
	}
	return view, nil
}

type fakeActions struct {
	actions []*Action
}

func (a *fakeActions) Record(action *Action) {
	a.actions = append(a.actions, action)
}

type testEnv struct {
	svc       *GameService
	store     *fakeStore
	locker    *fakeLocker
	publisher *fakePublisher
	views     *fakeViews
	actions   *fakeActions
	manager   *game.GameManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, &fakeStore{states: make(map[string]*switcher.State)})
}

// newTestEnvWithStore 共用存储的多个环境相当于多个服务实例
func newTestEnvWithStore(t *testing.T, store *fakeStore) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     store,
		locker:    &fakeLocker{locked: make(map[string]bool)},
		publisher: &fakePublisher{},
		views:     &fakeViews{views: make(map[string]*proto.GameView)},
		actions:   &fakeActions{},
	}
	env.manager = game.NewGameManager(env.store, 0, time.Hour, time.Hour)
	env.manager.SetRandSource(func() *rand.Rand { return rand.New(rand.NewSource(11)) })
	t.Cleanup(func() { _ = env.manager.Shutdown(context.Background()) })

	seq := 0
	env.svc = NewGameService(env.manager, env.locker, env.publisher, env.views, env.actions, func() string {
		seq++
		return fmt.Sprintf("g%d", seq)
	})
	return env
}

// startGame 建一局双人游戏并开始
func (env *testEnv) startGame(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)
	_, err = env.svc.Join(ctx, view.Id, 2, "bob")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, view.Id, 1)
	require.NoError(t, err)
	env.publisher.reset()
	return view.Id
}

// arrange 直接修改内存中的状态，布置测试局面
func (env *testEnv) arrange(t *testing.T, gameID string, fn func(s *switcher.State)) {
	t.Helper()
	g, err := env.manager.Get(context.Background(), gameID)
	require.NoError(t, err)
	require.NoError(t, g.Do(func(e *switcher.Engine) error {
		fn(e.State())
		return nil
	}))
}

func lineBoard() core.Grid {
	var g core.Grid
	for r := 0; r < core.BoardSize; r++ {
		for c := 0; c < core.BoardSize; c++ {
			if (r+c)%2 == 0 {
				g[r][c] = core.ColorBlue
			} else {
				g[r][c] = core.ColorYellow
			}
		}
	}
	for c := 0; c < 4; c++ {
		g[0][c] = core.ColorRed
	}
	return g
}

func giveFigures(s *switcher.State, player switcher.PlayerID, firstID int64, types ...core.FigureType) {
	p := s.Players[player]
	for _, id := range p.FigureCards {
		delete(s.FigureCards, id)
	}
	p.FigureCards = nil
	for i, ft := range types {
		id := firstID + int64(i)
		s.FigureCards[id] = &switcher.FigureCard{ID: id, Type: ft, Owner: player, InHand: true}
		p.FigureCards = append(p.FigureCards, id)
	}
}

func TestCreateAndJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.svc.Create(ctx, 1, "alice", "room", 3)
	require.NoError(t, err)
	assert.Equal(t, "g1", view.Id)
	assert.Equal(t, "waiting", view.Status)
	assert.Contains(t, env.store.states, "g1")
	assert.Equal(t, view, env.views.views["g1"])

	view, err = env.svc.Join(ctx, "g1", 2, "bob")
	require.NoError(t, err)
	assert.Len(t, view.Players, 2)
	assert.Equal(t, []string{proto.EventPlayerConnected, proto.EventGame}, env.publisher.types())
	assert.Equal(t, 1, env.locker.released)

	require.Len(t, env.actions.actions, 2)
	assert.Equal(t, proto.CmdJoin, env.actions.actions[1].Type)

	_, err = env.svc.Create(ctx, 1, "alice", "", 2)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	_, err = env.svc.Create(ctx, 1, "alice", "room", 7)
	assert.ErrorIs(t, err, core.ErrInvalidCapacity)
}

func TestStartPublishesBoard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)
	_, err = env.svc.Join(ctx, view.Id, 2, "bob")
	require.NoError(t, err)
	env.publisher.reset()

	_, err = env.svc.Start(ctx, view.Id, 2)
	assert.ErrorIs(t, err, core.ErrNotHost)
	assert.Empty(t, env.publisher.events)

	view, err = env.svc.Start(ctx, view.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, "in game", view.Status)
	assert.NotZero(t, view.CurrentPlayer)
	assert.Equal(t, []string{
		proto.EventGameStarted,
		proto.EventBoard,
		proto.EventFigures,
		proto.EventPartialMoves,
		proto.EventGame,
	}, env.publisher.types())

	board := env.publisher.events[1].payload.(*proto.BoardView)
	assert.Len(t, board.ColorDistribution, core.BoardSize)

	saved := env.store.states[view.Id]
	assert.Equal(t, switcher.StatusInGame, saved.Status)
	for _, p := range view.Players {
		assert.Len(t, p.MovementCards, switcher.HandSize)
		assert.Len(t, p.FigureCards, switcher.HandSize)
	}
}

func TestLockFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)

	lockErr := errors.New("lock busy")
	env.locker.err = lockErr
	_, err = env.svc.Join(ctx, view.Id, 2, "bob")
	assert.ErrorIs(t, err, lockErr)
}

func TestUnknownGame(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Join(context.Background(), "missing", 2, "bob")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestCommandSeesOtherInstanceChanges(t *testing.T) {
	first := newTestEnv(t)
	second := newTestEnvWithStore(t, first.store)
	ctx := context.Background()

	view, err := first.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)
	_, err = second.svc.Join(ctx, view.Id, 2, "bob")
	require.NoError(t, err)

	// first 缓存的仍是只有房主的副本
	view, err = first.svc.Start(ctx, view.Id, 1)
	require.NoError(t, err)
	assert.Equal(t, "in game", view.Status)
	assert.Len(t, view.Players, 2)

	saved, err := first.store.Load(ctx, view.Id)
	require.NoError(t, err)
	assert.Equal(t, switcher.StatusInGame, saved.Status)
	assert.Contains(t, saved.Players, switcher.PlayerID(2))
	assert.Equal(t, int64(3), saved.Revision)
}

func TestSaveConflictRetriesOnFreshState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)

	env.store.conflicts = 1
	view, err = env.svc.Join(ctx, view.Id, 2, "bob")
	require.NoError(t, err)
	assert.Len(t, view.Players, 2)

	saved, err := env.store.Load(ctx, view.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.PlayerCount())
	assert.Equal(t, 1, env.manager.Count())
}

func TestSaveConflictGivesUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)

	env.publisher.reset()
	env.store.conflicts = maxSaveAttempts
	_, err = env.svc.Join(ctx, view.Id, 2, "bob")
	assert.ErrorIs(t, err, game.ErrVersionConflict)
	assert.Equal(t, 0, env.manager.Count(), "the rejected copy is dropped")
	assert.Empty(t, env.publisher.events)

	saved, err := env.store.Load(ctx, view.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.PlayerCount())
}

func TestMoveUndoAndFinishTurn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.startGame(t)

	var current switcher.PlayerID
	var card *switcher.MovementCard
	env.arrange(t, id, func(s *switcher.State) {
		current = s.CurrentPlayer()
		card = s.MovementHand(current)[0]
	})
	swap := core.ValidMoves(card.Type)[0]

	_, err := env.svc.AddMove(ctx, id, current, card.ID, swap.From, swap.To)
	require.NoError(t, err)
	assert.Equal(t, []string{proto.EventBoard, proto.EventFigures, proto.EventPartialMoves, proto.EventGame}, env.publisher.types())

	tiles := env.publisher.events[2].payload.(*proto.PartialMovesView)
	assert.Len(t, tiles.Tiles, 2)

	_, err = env.svc.UndoMove(ctx, id, current)
	require.NoError(t, err)
	_, err = env.svc.UndoMove(ctx, id, current)
	assert.ErrorIs(t, err, core.ErrNoPartialMoves)

	env.publisher.reset()
	view, err := env.svc.FinishTurn(ctx, id, current)
	require.NoError(t, err)
	assert.NotEqual(t, int64(current), view.CurrentPlayer)
	last := env.publisher.events[len(env.publisher.events)-1]
	assert.Equal(t, proto.EventFinishTurn, last.typ)
	assert.Equal(t, view.CurrentPlayer, last.payload.(proto.PlayerNotice).PlayerId)
}

func TestDiscardWinsGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.startGame(t)

	var current switcher.PlayerID
	env.arrange(t, id, func(s *switcher.State) {
		current = s.CurrentPlayer()
		s.Board = lineBoard()
		giveFigures(s, current, 9000, core.Fige06)
	})

	view, err := env.svc.DiscardFigure(ctx, id, current, core.Fige06, core.Coord(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "finished", view.Status)
	assert.Equal(t, int64(current), view.Winner)
	assert.Equal(t, "red", view.ForbiddenColor)
	assert.Contains(t, env.publisher.types(), proto.EventGameWon)
	assert.Equal(t, switcher.StatusFinished, env.store.states[id].Status)
}

func TestBlockFigure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.startGame(t)

	var current, other switcher.PlayerID
	env.arrange(t, id, func(s *switcher.State) {
		current = s.CurrentPlayer()
		other = 3 - current
		s.Board = lineBoard()
		giveFigures(s, other, 9000, core.Fige06, core.Fig01)
	})

	_, err := env.svc.BlockFigure(ctx, id, current, current, core.Fige06, core.Coord(0, 0))
	assert.ErrorIs(t, err, core.ErrCannotBlockSelf)

	view, err := env.svc.BlockFigure(ctx, id, current, other, core.Fige06, core.Coord(0, 0))
	require.NoError(t, err)
	for _, p := range view.Players {
		assert.Equal(t, p.Id == int64(other), p.Blocked)
	}
}

func TestQuitEndsTwoPlayerGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.startGame(t)

	view, err := env.svc.Quit(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, "finished", view.Status)
	assert.Equal(t, int64(1), view.Winner)
	assert.Equal(t, []string{proto.EventPlayerDisconnected, proto.EventGameWon, proto.EventGame}, env.publisher.types())
}

func TestViewBoardAndFigures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.svc.Create(ctx, 1, "alice", "room", 2)
	require.NoError(t, err)
	_, err = env.svc.Board(ctx, view.Id)
	assert.ErrorIs(t, err, core.ErrGameNotInProgress)

	delete(env.views.views, view.Id)
	got, err := env.svc.View(ctx, view.Id)
	require.NoError(t, err)
	assert.Equal(t, view.Id, got.Id)
	assert.Contains(t, env.views.views, view.Id, "view is cached on miss")

	_, err = env.svc.Join(ctx, view.Id, 2, "bob")
	require.NoError(t, err)
	_, err = env.svc.Start(ctx, view.Id, 1)
	require.NoError(t, err)

	env.arrange(t, view.Id, func(s *switcher.State) { s.Board = lineBoard() })
	board, err := env.svc.Board(ctx, view.Id)
	require.NoError(t, err)
	assert.Equal(t, "red", board.ColorDistribution[0][0])

	figures, err := env.svc.Figures(ctx, view.Id)
	require.NoError(t, err)
	require.Len(t, figures, 1)
	assert.Equal(t, "fige06", figures[0].Fig)
	assert.Equal(t, proto.Coordinate{X: 0, Y: 0}, figures[0].Tiles[0])
}
