package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pipegraph/pkg/cache"
	pgerrors "github.com/matzehuels/pipegraph/pkg/errors"
	"github.com/matzehuels/pipegraph/pkg/graph"
	"github.com/matzehuels/pipegraph/pkg/layout"
	"github.com/matzehuels/pipegraph/pkg/lineage"
	"github.com/matzehuels/pipegraph/pkg/observability"
	"github.com/matzehuels/pipegraph/pkg/render"
	"github.com/matzehuels/pipegraph/pkg/render/dot"
	"github.com/matzehuels/pipegraph/pkg/slice"
)

// recorder captures engine hook calls. onStart, when set, runs inside
// OnLayoutStart and may block.
type recorder struct {
	observability.NoopEngineHooks

	mu         sync.Mutex
	starts     []string
	completes  []error
	superseded []string
	queries    []string
	onStart    func(strategy string)
}

func (r *recorder) OnLayoutStart(_ context.Context, strategy string, _ int) {
	r.mu.Lock()
	r.starts = append(r.starts, strategy)
	hook := r.onStart
	r.mu.Unlock()
	if hook != nil {
		hook(strategy)
	}
}

func (r *recorder) OnLayoutComplete(_ context.Context, _ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, err)
}

func (r *recorder) OnLayoutSuperseded(_ context.Context, slot string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.superseded = append(r.superseded, slot)
}

func (r *recorder) OnQuery(_ context.Context, kind, mode string, size int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, fmt.Sprintf("%s/%s/%d", kind, mode, size))
}

func setup(t *testing.T, c cache.Cache) (*Runner, *recorder) {
	t.Helper()
	rec := &recorder{}
	observability.SetEngineHooks(rec)
	t.Cleanup(observability.Reset)
	return NewRunner(c, nil, log.New(io.Discard)), rec
}

func chain(n int) graph.Graph {
	g := graph.Graph{}
	for i := range n {
		g.Nodes = append(g.Nodes, graph.Node{ID: fmt.Sprintf("n%d", i), Type: graph.TypeTransform})
		if i > 0 {
			g.Edges = append(g.Edges, graph.Edge{
				ID:     fmt.Sprintf("e%d", i),
				Source: fmt.Sprintf("n%d", i-1),
				Target: fmt.Sprintf("n%d", i),
			})
		}
	}
	return g
}

func TestLayout_Cache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r, rec := setup(t, fc)
	ctx := context.Background()
	g := chain(4)

	first, hit, err := r.LayoutWithCacheInfo(ctx, "", g, layout.StrategyHierarchical, layout.Config{})
	if err != nil || hit {
		t.Fatalf("first layout = hit %v, err %v", hit, err)
	}
	if first.Layers != 4 {
		t.Errorf("Layers = %d, want 4", first.Layers)
	}

	// An explicit default config shares the entry of the empty config.
	second, hit, err := r.LayoutWithCacheInfo(ctx, "", g, layout.StrategyHierarchical, layout.DefaultConfig())
	if err != nil || !hit {
		t.Fatalf("second layout = hit %v, err %v", hit, err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}
	if len(rec.starts) != 1 {
		t.Errorf("layout computed %d times, want 1", len(rec.starts))
	}

	// A different strategy is a different entry.
	if _, hit, _ := r.LayoutWithCacheInfo(ctx, "", g, layout.StrategyGrid, layout.Config{}); hit {
		t.Error("grid layout should not hit the hierarchical entry")
	}
}

func TestLayout_Invalid(t *testing.T) {
	r, rec := setup(t, nil)
	ctx := context.Background()

	_, err := r.Layout(ctx, "", chain(2), "spiral", layout.Config{})
	if !pgerrors.Is(err, pgerrors.ErrCodeInvalidStrategy) {
		t.Errorf("unknown strategy error = %v", err)
	}
	_, err = r.Layout(ctx, "", chain(2), layout.StrategyGrid, layout.Config{Padding: -1})
	if !pgerrors.Is(err, pgerrors.ErrCodeInvalidInput) {
		t.Errorf("negative padding error = %v", err)
	}
	if len(rec.starts) != 0 {
		t.Error("invalid requests should not start a layout")
	}
}

func TestLayout_Superseded(t *testing.T) {
	r, rec := setup(t, nil)
	ctx := context.Background()

	started := make(chan struct{}, 1)
	rec.onStart = func(strategy string) {
		if strategy == string(layout.StrategyForce) {
			started <- struct{}{}
		}
	}

	slow := layout.Config{Iterations: 1 << 30}
	done := make(chan error, 1)
	go func() {
		_, err := r.Layout(ctx, "tab", chain(60), layout.StrategyForce, slow)
		done <- err
	}()
	<-started

	res, err := r.Layout(ctx, "tab", chain(3), layout.StrategyHierarchical, layout.Config{})
	if err != nil {
		t.Fatalf("newer layout error = %v", err)
	}
	if len(res.Nodes) != 3 {
		t.Errorf("newer layout has %d nodes, want 3", len(res.Nodes))
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("older layout error = %v, want ErrSuperseded", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("older layout was not cancelled")
	}

	// The abandoned simulation stops.
	deadline := time.Now().Add(10 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.completes)
		var cancelled bool
		for _, e := range rec.completes {
			cancelled = cancelled || errors.Is(e, context.Canceled)
		}
		rec.mu.Unlock()
		if n == 2 && cancelled {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("force simulation kept running after being superseded")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if diff := cmp.Diff([]string{"tab"}, rec.superseded); diff != "" {
		t.Errorf("superseded slots (-want +got):\n%s", diff)
	}
}

func TestLayout_SlotsAreIndependent(t *testing.T) {
	r, _ := setup(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = r.Layout(ctx, fmt.Sprintf("slot-%d", i), chain(5+i), layout.StrategyForce, layout.Config{Iterations: 20})
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("slot %d error = %v", i, err)
		}
	}
	if len(r.slots) != 0 {
		t.Errorf("%d slots left registered", len(r.slots))
	}
}

func TestLayout_Coalesced(t *testing.T) {
	r, rec := setup(t, nil)
	ctx := context.Background()
	g := chain(10)

	started := make(chan struct{})
	release := make(chan struct{})
	rec.onStart = func(string) {
		close(started)
		<-release
	}

	results := make([]layout.Result, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = r.Layout(ctx, "", g, layout.StrategyCircular, layout.Config{})
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = r.Layout(ctx, "", g, layout.StrategyCircular, layout.Config{})
	}()

	// Wait for the second caller to join the flight before letting the
	// computation finish.
	deadline := time.Now().Add(5 * time.Second)
	for {
		waiters := 0
		r.mu.Lock()
		for _, f := range r.flights {
			waiters = f.waiters
		}
		r.mu.Unlock()
		if waiters == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("second request never joined")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d error = %v", i, err)
		}
	}
	if diff := cmp.Diff(results[0], results[1]); diff != "" {
		t.Errorf("coalesced results differ:\n%s", diff)
	}
	if len(rec.starts) != 1 {
		t.Errorf("layout computed %d times, want 1", len(rec.starts))
	}
	if len(r.flights) != 0 {
		t.Errorf("%d flights left registered", len(r.flights))
	}
}

func TestLayout_CallerCancelled(t *testing.T) {
	r, _ := setup(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Layout(ctx, "tab", chain(20), layout.StrategyForce, layout.Config{Iterations: 1 << 30})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrSuperseded) {
		t.Error("a cancelled caller is not superseded")
	}
}

func TestQueries(t *testing.T) {
	r, rec := setup(t, nil)
	ctx := context.Background()
	g := chain(4)

	set, err := r.Lineage(ctx, g, "n1", lineage.ModeImpact)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"n1", "n2", "n3"}, set.Sorted()); diff != "" {
		t.Errorf("Lineage (-want +got):\n%s", diff)
	}
	if _, err := r.Lineage(ctx, g, "n1", "sideways"); !pgerrors.Is(err, pgerrors.ErrCodeInvalidMode) {
		t.Errorf("invalid mode error = %v", err)
	}

	rel := r.Related(ctx, g, "n3", lineage.Upstream, 2)
	if diff := cmp.Diff([]string{"n1", "n2"}, rel.Sorted()); diff != "" {
		t.Errorf("Related (-want +got):\n%s", diff)
	}

	res, err := r.Slice(ctx, g, slice.Options{Selection: []string{"n2"}, Mode: slice.ModeTo})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Nodes) != 3 || len(res.Edges) != 2 {
		t.Errorf("Slice = %d nodes, %d edges, want 3, 2", len(res.Nodes), len(res.Edges))
	}

	// Every transform in the chain is a combiner; the inner ones are also
	// the only route between their neighbours.
	findings := r.Explain(ctx, g, "n0")
	wantFindings := []lineage.Finding{
		{ID: "n0", Reasons: []lineage.Reason{lineage.ReasonCombiner}},
		{ID: "n1", Reasons: []lineage.Reason{lineage.ReasonCombiner, lineage.ReasonBottleneck}},
		{ID: "n2", Reasons: []lineage.Reason{lineage.ReasonCombiner, lineage.ReasonBottleneck}},
		{ID: "n3", Reasons: []lineage.Reason{lineage.ReasonCombiner}},
	}
	if diff := cmp.Diff(wantFindings, findings); diff != "" {
		t.Errorf("Explain (-want +got):\n%s", diff)
	}

	want := []string{"lineage/impact/3", "related/upstream/2", "slice/to/3", "explain/critical/4"}
	if diff := cmp.Diff(want, rec.queries); diff != "" {
		t.Errorf("queries (-want +got):\n%s", diff)
	}
}

func TestRender_Cache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r, _ := setup(t, fc)
	ctx := context.Background()

	res, err := r.Layout(ctx, "", chain(3), layout.StrategyGrid, layout.Config{})
	if err != nil {
		t.Fatal(err)
	}
	laid := graph.Graph{Nodes: res.Nodes, Edges: chain(3).Edges}
	opts := dot.Options{Highlight: graph.NewSet("n1")}

	first, hit, err := r.RenderWithCacheInfo(ctx, laid, render.FormatDOT, opts)
	if err != nil || hit {
		t.Fatalf("first render = hit %v, err %v", hit, err)
	}
	second, hit, err := r.RenderWithCacheInfo(ctx, laid, "dot", opts)
	if err != nil || !hit {
		t.Fatalf("second render = hit %v, err %v", hit, err)
	}
	if string(first) != string(second) {
		t.Error("cached render differs")
	}

	if _, hit, _ := r.RenderWithCacheInfo(ctx, laid, "dot", dot.Options{}); hit {
		t.Error("different highlight should miss")
	}
	if _, err := r.Render(ctx, laid, "bmp", opts); !pgerrors.Is(err, pgerrors.ErrCodeUnsupported) {
		t.Errorf("unsupported format error = %v", err)
	}
}
