package poller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ntwoods/countboard/internal/store"
)

// fetchFunc adapts a function to CountFetcher.
type fetchFunc func(ctx context.Context, tile TileInfo) (int, time.Duration, error)

func (f fetchFunc) FetchCount(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
	return f(ctx, tile)
}

func tileIDs(tiles []TileInfo) []string {
	ids := make([]string, len(tiles))
	for i, t := range tiles {
		ids[i] = t.ID
	}
	return ids
}

func newTestController(tiles []TileInfo, fetcher CountFetcher, onResult func(Result)) (*Controller, *store.MemoryStore) {
	st := store.NewMemoryStore(tileIDs(tiles))
	return NewController(tiles, st, fetcher, 0, onResult, testLogger()), st
}

func mustTile(t *testing.T, snap store.Snapshot, id string) store.TileStatus {
	t.Helper()
	st, ok := snap.Tile(id)
	if !ok {
		t.Fatalf("tile %q missing from snapshot", id)
	}
	return st
}

// TestController_CountAndItems covers two tiles answering with different
// shapes through the real fetcher.
func TestController_CountAndItems(t *testing.T) {
	first := jsonServer(t, http.StatusOK, `{"count": 3}`)
	second := jsonServer(t, http.StatusOK, `{"items": [1, 2]}`)

	tiles := []TileInfo{
		{ID: "approve", CountURL: first.URL},
		{ID: "lr", CountURL: second.URL},
	}
	c, st := newTestController(tiles, NewFetcher(NewClient(), testLogger()), nil)

	round := c.Refresh(context.Background())
	if round != 1 {
		t.Errorf("Refresh() = %d, want 1", round)
	}

	snap := st.Snapshot()
	if got := mustTile(t, snap, "approve"); got.State != store.StateOK || got.Count != 3 {
		t.Errorf("approve = %+v, want ok/3", got)
	}
	if got := mustTile(t, snap, "lr"); got.State != store.StateOK || got.Count != 2 {
		t.Errorf("lr = %+v, want ok/2", got)
	}
	if snap.Total != 5 {
		t.Errorf("Total = %d, want 5", snap.Total)
	}
	if snap.LastUpdated == nil {
		t.Error("LastUpdated should be set after a completed round")
	}
}

// TestController_NetworkErrorAndZero covers a failing tile next to an
// all-clear tile.
func TestController_NetworkErrorAndZero(t *testing.T) {
	zero := jsonServer(t, http.StatusOK, `{"count": 0}`)

	tiles := []TileInfo{
		{ID: "approve", CountURL: "http://127.0.0.1:1/unreachable"},
		{ID: "lr", CountURL: zero.URL},
	}
	c, st := newTestController(tiles, NewFetcher(NewClient(), testLogger()), nil)

	c.Refresh(context.Background())

	snap := st.Snapshot()
	approve := mustTile(t, snap, "approve")
	if approve.State != store.StateError {
		t.Errorf("approve State = %v, want error", approve.State)
	}
	if approve.Count != 0 {
		t.Errorf("approve Count = %d, want 0", approve.Count)
	}
	if approve.Error == "" {
		t.Error("approve Error should carry a message")
	}
	if got := mustTile(t, snap, "lr"); got.State != store.StateOK || got.Count != 0 {
		t.Errorf("lr = %+v, want ok/0", got)
	}
	if snap.Total != 0 {
		t.Errorf("Total = %d, want 0", snap.Total)
	}
}

func TestController_ErrorRetainsPreviousCount(t *testing.T) {
	var calls atomic.Int32
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		if calls.Add(1) == 1 {
			return 8, time.Millisecond, nil
		}
		return 0, time.Millisecond, &FetchError{Kind: ErrBadResponse, Err: errors.New("unexpected status 502 Bad Gateway")}
	})

	c, st := newTestController([]TileInfo{{ID: "a"}}, fetcher, nil)

	c.Refresh(context.Background())
	c.Refresh(context.Background())

	got := mustTile(t, st.Snapshot(), "a")
	if got.State != store.StateError {
		t.Errorf("State = %v, want error", got.State)
	}
	if got.Count != 8 {
		t.Errorf("Count = %d, want 8 (retained)", got.Count)
	}
	if st.Snapshot().Total != 8 {
		t.Errorf("Total = %d, want 8", st.Snapshot().Total)
	}
}

func TestController_NoTileLeftLoading(t *testing.T) {
	tiles := make([]TileInfo, 8)
	for i := range tiles {
		tiles[i] = TileInfo{ID: fmt.Sprintf("t%d", i)}
	}
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		if tile.ID == "t3" || tile.ID == "t5" {
			return 0, 0, &FetchError{Kind: ErrNetwork, Err: errors.New("connection reset")}
		}
		return 1, 0, nil
	})

	c, st := newTestController(tiles, fetcher, nil)
	c.Refresh(context.Background())

	for _, ts := range st.Snapshot().Tiles {
		if ts.State != store.StateOK && ts.State != store.StateError {
			t.Errorf("tile %s State = %v, want ok or error", ts.ID, ts.State)
		}
	}
}

func TestController_FetchesInParallel(t *testing.T) {
	const n = 4
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		started.Done()
		select {
		case <-allStarted:
			return 1, 0, nil
		case <-time.After(2 * time.Second):
			return 0, 0, &FetchError{Kind: ErrNetwork, Err: errors.New("fetches were not concurrent")}
		}
	})

	tiles := make([]TileInfo, n)
	for i := range tiles {
		tiles[i] = TileInfo{ID: fmt.Sprintf("t%d", i)}
	}
	c, st := newTestController(tiles, fetcher, nil)
	c.Refresh(context.Background())

	if st.Snapshot().Total != n {
		t.Errorf("Total = %d, want %d", st.Snapshot().Total, n)
	}
}

func TestController_RespectsMaxConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return 1, 0, nil
	})

	tiles := make([]TileInfo, 6)
	for i := range tiles {
		tiles[i] = TileInfo{ID: fmt.Sprintf("t%d", i)}
	}
	st := store.NewMemoryStore(tileIDs(tiles))
	c := NewController(tiles, st, fetcher, 2, nil, testLogger())

	c.Refresh(context.Background())

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
	if st.Snapshot().Total != 6 {
		t.Errorf("Total = %d, want 6", st.Snapshot().Total)
	}
}

// TestController_StaleResultDiscarded starts a round whose fetch ignores
// cancellation and answers late, then verifies the newer round wins.
func TestController_StaleResultDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var calls atomic.Int32

	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			<-releaseFirst
			return 99, 0, nil
		}
		return 1, 0, nil
	})

	var mu sync.Mutex
	var results []Result
	onResult := func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}

	c, st := newTestController([]TileInfo{{ID: "a"}}, fetcher, onResult)

	firstDone := make(chan uint64)
	go func() {
		firstDone <- c.Refresh(context.Background())
	}()
	<-firstStarted

	second := c.Refresh(context.Background())
	close(releaseFirst)
	first := <-firstDone

	if first != 1 || second != 2 {
		t.Fatalf("rounds = (%d, %d), want (1, 2)", first, second)
	}

	snap := st.Snapshot()
	got := mustTile(t, snap, "a")
	if got.Count != 1 || got.State != store.StateOK {
		t.Errorf("tile = %+v, want ok/1 from the newer round", got)
	}
	if snap.Round != 2 {
		t.Errorf("Round = %d, want 2", snap.Round)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0].Round != 2 {
		t.Errorf("results = %+v, want a single result from round 2", results)
	}
}

// TestController_NewRoundCancelsPrevious verifies the previous round's
// context is cancelled and its cancelled fetches are not displayed.
func TestController_NewRoundCancelsPrevious(t *testing.T) {
	firstStarted := make(chan struct{})
	var calls atomic.Int32

	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		if calls.Add(1) == 1 {
			close(firstStarted)
			select {
			case <-ctx.Done():
				return 0, 0, &FetchError{Kind: ErrCancelled, Err: ctx.Err()}
			case <-time.After(5 * time.Second):
				return 50, 0, nil
			}
		}
		return 4, 0, nil
	})

	c, st := newTestController([]TileInfo{{ID: "a"}}, fetcher, nil)

	firstDone := make(chan struct{})
	go func() {
		c.Refresh(context.Background())
		close(firstDone)
	}()
	<-firstStarted

	c.Refresh(context.Background())

	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Fatal("first round was not cancelled by the second")
	}

	got := mustTile(t, st.Snapshot(), "a")
	if got.State != store.StateOK || got.Count != 4 {
		t.Errorf("tile = %+v, want ok/4", got)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, cancelled fetch must not be displayed", got.Error)
	}
}

func TestController_OnResult(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		if tile.ID == "bad" {
			return 0, 5 * time.Millisecond, &FetchError{Kind: ErrNetwork, Err: errors.New("refused")}
		}
		return 2, 5 * time.Millisecond, nil
	})

	var mu sync.Mutex
	got := map[string]Result{}
	c, _ := newTestController([]TileInfo{{ID: "good"}, {ID: "bad"}}, fetcher, func(r Result) {
		mu.Lock()
		got[r.TileID] = r
		mu.Unlock()
	})

	c.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("received %d results, want 2", len(got))
	}
	if got["good"].Count != 2 || got["good"].Err != nil {
		t.Errorf("good = %+v, want count 2 without error", got["good"])
	}
	if !errors.Is(got["bad"].Err, ErrNetwork) {
		t.Errorf("bad.Err = %v, want ErrNetwork", got["bad"].Err)
	}
	if got["good"].Round != 1 {
		t.Errorf("Round = %d, want 1", got["good"].Round)
	}
}

func TestController_ParentCancellationLeavesNoCompletion(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		<-ctx.Done()
		return 0, 0, &FetchError{Kind: ErrCancelled, Err: ctx.Err()}
	})

	c, st := newTestController([]TileInfo{{ID: "a"}}, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Refresh(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh did not return after parent cancellation")
	}

	if st.Snapshot().LastUpdated != nil {
		t.Error("a cancelled round must not record LastUpdated")
	}
}

func TestController_Stop(t *testing.T) {
	started := make(chan struct{})
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		close(started)
		<-ctx.Done()
		return 0, 0, &FetchError{Kind: ErrCancelled, Err: ctx.Err()}
	})

	c, _ := newTestController([]TileInfo{{ID: "a"}}, fetcher, nil)

	done := make(chan struct{})
	go func() {
		c.Refresh(context.Background())
		close(done)
	}()
	<-started

	c.Stop()
	c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the active round")
	}
}

func TestController_ConcurrentRefresh(t *testing.T) {
	fetcher := fetchFunc(func(ctx context.Context, tile TileInfo) (int, time.Duration, error) {
		select {
		case <-ctx.Done():
			return 0, 0, &FetchError{Kind: ErrCancelled, Err: ctx.Err()}
		case <-time.After(time.Millisecond):
			return 3, 0, nil
		}
	})

	c, st := newTestController([]TileInfo{{ID: "a"}, {ID: "b"}}, fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
	}
	wg.Wait()

	// one more uncontended round settles everything
	c.Refresh(context.Background())

	snap := st.Snapshot()
	if snap.Round != 21 {
		t.Errorf("Round = %d, want 21", snap.Round)
	}
	if snap.Total != 6 {
		t.Errorf("Total = %d, want 6", snap.Total)
	}
}
