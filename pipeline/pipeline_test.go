package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/reelrank/reelrank/core"
)

type stubNode struct {
	name string
	fn   func(items []*core.Item) ([]*core.Item, error)
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Kind() Kind   { return KindPostProcess }
func (n *stubNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "drop-first", fn: func(items []*core.Item) ([]*core.Item, error) {
			return items[1:], nil
		}},
		&stubNode{name: "keep-one", fn: func(items []*core.Item) ([]*core.Item, error) {
			return items[:1], nil
		}},
	}}

	items := []*core.Item{
		core.NewItem(&core.Movie{ID: 1}),
		core.NewItem(&core.Movie{ID: 2}),
		core.NewItem(&core.Movie{ID: 3}),
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("out = %v, want single item 2", out)
	}
}

func TestPipeline_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var reached bool
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "fail", fn: func([]*core.Item) ([]*core.Item, error) { return nil, boom }},
		&stubNode{name: "never", fn: func(items []*core.Item) ([]*core.Item, error) {
			reached = true
			return items, nil
		}},
	}}

	if _, err := p.Run(context.Background(), &core.RecommendContext{}, nil); !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if reached {
		t.Fatal("pipeline continued past failing node")
	}
}
