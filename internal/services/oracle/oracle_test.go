package oracle

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry/registrytest"
)

type fakeRateReader struct {
	mu    sync.Mutex
	rate  *big.Int
	err   error
	calls int
}

func (f *fakeRateReader) ExchangeRateStored(ctx context.Context, cToken *domain.Asset) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return new(big.Int).Set(f.rate), nil
}

func (f *fakeRateReader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// 0.0216 DAI per cDAI, as exchangeRateStored reports it (scaled by 1e28).
func mainnetRate() *big.Int {
	r, _ := new(big.Int).SetString("216000000000000000000000000", 10)
	return r
}

func TestCurrentRatioScalesByDecimals(t *testing.T) {
	reader := &fakeRateReader{rate: mainnetRate()}
	o := New(reader, registrytest.New(), time.Minute)

	ratio, err := o.CurrentRatio(context.Background(), domain.ChainMainnet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := big.NewRat(216, 10000); ratio.Cmp(want) != 0 {
		t.Errorf("ratio = %s, want %s", ratio.FloatString(6), want.FloatString(6))
	}
}

func TestCurrentRatioCachesUntilInvalidated(t *testing.T) {
	reader := &fakeRateReader{rate: mainnetRate()}
	o := New(reader, registrytest.New(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
			t.Fatal(err)
		}
	}
	if got := reader.callCount(); got != 1 {
		t.Fatalf("reads before invalidate = %d, want 1", got)
	}

	o.Invalidate()
	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	if got := reader.callCount(); got != 2 {
		t.Errorf("reads after invalidate = %d, want 2", got)
	}
}

func TestCurrentRatioExpiresAfterMaxAge(t *testing.T) {
	reader := &fakeRateReader{rate: mainnetRate()}
	o := New(reader, registrytest.New(), 15*time.Second)
	now := time.Unix(1_700_000_000, 0)
	o.now = func() time.Time { return now }
	ctx := context.Background()

	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	now = now.Add(10 * time.Second)
	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	if got := reader.callCount(); got != 1 {
		t.Fatalf("reads within max age = %d, want 1", got)
	}

	now = now.Add(10 * time.Second)
	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	if got := reader.callCount(); got != 2 {
		t.Errorf("reads after max age = %d, want 2", got)
	}
}

func TestCurrentRatioPropagatesReadFailure(t *testing.T) {
	readErr := errors.New("rpc down")
	reader := &fakeRateReader{err: readErr}
	o := New(reader, registrytest.New(), time.Minute)

	ratio, err := o.CurrentRatio(context.Background(), domain.ChainMainnet)
	if !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want %v", err, readErr)
	}
	if ratio != nil {
		t.Errorf("ratio = %s, want nil", ratio)
	}

	// failures are not cached
	reader.mu.Lock()
	reader.err = nil
	reader.rate = mainnetRate()
	reader.mu.Unlock()
	if _, err := o.CurrentRatio(context.Background(), domain.ChainMainnet); err != nil {
		t.Errorf("second read: %v", err)
	}
}

func TestCurrentRatioRejectsZeroRate(t *testing.T) {
	reader := &fakeRateReader{rate: big.NewInt(0)}
	o := New(reader, registrytest.New(), time.Minute)

	if _, err := o.CurrentRatio(context.Background(), domain.ChainMainnet); !errors.Is(err, domain.ErrRemoteReadFailure) {
		t.Errorf("err = %v, want ErrRemoteReadFailure", err)
	}
}

func TestCurrentRatioUnknownChain(t *testing.T) {
	o := New(&fakeRateReader{rate: mainnetRate()}, registrytest.New(), time.Minute)

	if _, err := o.CurrentRatio(context.Background(), domain.ChainKovan); !errors.Is(err, domain.ErrUnsupportedChain) {
		t.Errorf("err = %v, want ErrUnsupportedChain", err)
	}
}

func TestCurrentRatioReturnsCopies(t *testing.T) {
	o := New(&fakeRateReader{rate: mainnetRate()}, registrytest.New(), time.Minute)
	ctx := context.Background()

	first, err := o.CurrentRatio(ctx, domain.ChainMainnet)
	if err != nil {
		t.Fatal(err)
	}
	first.SetInt64(42)

	second, err := o.CurrentRatio(ctx, domain.ChainMainnet)
	if err != nil {
		t.Fatal(err)
	}
	if second.Cmp(big.NewRat(216, 10000)) != 0 {
		t.Errorf("cached ratio was mutated: %s", second)
	}
}

// gatedRateReader blocks every read until release is closed.
type gatedRateReader struct {
	rate    *big.Int
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	calls   int
	ctxErrs []error
}

func newGatedRateReader() *gatedRateReader {
	return &gatedRateReader{
		rate:    mainnetRate(),
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (g *gatedRateReader) ExchangeRateStored(ctx context.Context, cToken *domain.Asset) (*big.Int, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.started <- struct{}{}
	<-g.release
	g.mu.Lock()
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	g.mu.Unlock()
	return new(big.Int).Set(g.rate), nil
}

func (g *gatedRateReader) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func waitStarted(t *testing.T, g *gatedRateReader) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("read did not start")
	}
}

func TestCurrentRatioInvalidateDuringRead(t *testing.T) {
	reader := newGatedRateReader()
	o := New(reader, registrytest.New(), time.Minute)
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() {
		_, err := o.CurrentRatio(ctx, domain.ChainMainnet)
		stale <- err
	}()
	waitStarted(t, reader)

	o.Invalidate()

	// a caller arriving after Invalidate starts its own read
	fresh := make(chan error, 1)
	go func() {
		_, err := o.CurrentRatio(ctx, domain.ChainMainnet)
		fresh <- err
	}()
	waitStarted(t, reader)
	if got := reader.callCount(); got != 2 {
		t.Fatalf("reads = %d, want 2", got)
	}

	close(reader.release)
	if err := <-stale; err != nil {
		t.Fatalf("in-flight read: %v", err)
	}
	if err := <-fresh; err != nil {
		t.Fatalf("fresh read: %v", err)
	}

	// only the read started after Invalidate is cached
	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	if got := reader.callCount(); got != 2 {
		t.Errorf("reads after both completed = %d, want 2", got)
	}
}

func TestCurrentRatioInvalidateDropsInFlightResult(t *testing.T) {
	reader := newGatedRateReader()
	o := New(reader, registrytest.New(), time.Minute)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := o.CurrentRatio(ctx, domain.ChainMainnet)
		done <- err
	}()
	waitStarted(t, reader)
	o.Invalidate()
	close(reader.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if _, err := o.CurrentRatio(ctx, domain.ChainMainnet); err != nil {
		t.Fatal(err)
	}
	if got := reader.callCount(); got != 2 {
		t.Errorf("reads = %d, want 2: a ratio read before Invalidate was cached", got)
	}
}

func TestCurrentRatioCallerCancellationDoesNotAbortSharedRead(t *testing.T) {
	reader := newGatedRateReader()
	o := New(reader, registrytest.New(), time.Minute)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := o.CurrentRatio(leaderCtx, domain.ChainMainnet)
		leader <- err
	}()
	waitStarted(t, reader)

	cancel()
	if err := <-leader; !errors.Is(err, context.Canceled) {
		t.Fatalf("leader err = %v, want context.Canceled", err)
	}

	follower := make(chan error, 1)
	go func() {
		ratio, err := o.CurrentRatio(context.Background(), domain.ChainMainnet)
		if err == nil && ratio.Cmp(big.NewRat(216, 10000)) != 0 {
			err = errors.New("unexpected ratio " + ratio.String())
		}
		follower <- err
	}()
	close(reader.release)

	if err := <-follower; err != nil {
		t.Fatalf("follower: %v", err)
	}
	reader.mu.Lock()
	defer reader.mu.Unlock()
	for _, err := range reader.ctxErrs {
		if err != nil {
			t.Errorf("read saw cancelled context: %v", err)
		}
	}
}
