package motif

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"

	"seqbias/internal/twobit"
)

func randomWindows(r *rand.Rand, count, n int, edit func([]byte)) []*twobit.Seq {
	out := make([]*twobit.Seq, count)
	for k := range out {
		b := make([]byte, n)
		for i := range b {
			b[i] = "acgt"[r.Intn(4)]
		}
		if edit != nil {
			edit(b)
		}
		out[k] = twobit.New(b, nil)
	}
	return out
}

func defaultParams(n int) Params {
	return Params{Len: n, MaxParents: 4, MaxDistance: 10, Penalty: 1}
}

func train(t *testing.T, bg, fg []*twobit.Seq, p Params) *Network {
	t.Helper()
	m, err := NetworkTrainer{Workers: 2}.Train(context.Background(), bg, fg, p)
	if err != nil {
		t.Fatal(err)
	}
	return m.(*Network)
}

func TestTrainFindsBiasedPosition(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	fg := randomWindows(r, 600, 5, func(b []byte) { b[2] = 'g' })
	bg := randomWindows(r, 1200, 5, nil)
	m := train(t, bg, fg, defaultParams(5))

	found := false
	for _, i := range m.Positions() {
		if i == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("position 2 not selected: %v", m.Positions())
	}
	if v := m.Eval(twobit.FromString("acgta", nil), 0); !(v > 1) {
		t.Errorf("foreground-like window scored %v", v)
	}
	if v := m.Eval(twobit.FromString("acata", nil), 0); !(v < 1) {
		t.Errorf("background-like window scored %v", v)
	}
}

func TestTrainFindsDependency(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	fg := randomWindows(r, 1000, 6, func(b []byte) { b[3] = b[1] })
	bg := randomWindows(r, 1000, 6, nil)
	m := train(t, bg, fg, defaultParams(6))
	if m.Edges() == 0 {
		t.Fatalf("no edge learned; positions %v", m.Positions())
	}
	g := m.Graph(0)
	if !strings.Contains(g, "n1 -> n3") && !strings.Contains(g, "n3 -> n1") {
		t.Fatalf("graph lacks the 1-3 dependency:\n%s", g)
	}
	match := m.Eval(twobit.FromString("acgcaa", nil), 0)
	mismatch := m.Eval(twobit.FromString("acgtaa", nil), 0)
	if !(match > mismatch) {
		t.Fatalf("match %v <= mismatch %v", match, mismatch)
	}
}

func TestTrainNoiseStaysEmpty(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	fg := randomWindows(r, 1000, 5, nil)
	bg := randomWindows(r, 1000, 5, nil)
	m := train(t, bg, fg, defaultParams(5))
	if len(m.Positions()) != 0 {
		t.Fatalf("noise selected positions %v", m.Positions())
	}
	if v := m.Eval(fg[0], 0); v != 1 {
		t.Fatalf("empty network Eval = %v", v)
	}
}

func TestTrainRespectsMaxParents(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	fg := randomWindows(r, 800, 6, func(b []byte) { b[0], b[2], b[4] = b[3], b[3], b[3] })
	bg := randomWindows(r, 800, 6, nil)
	p := defaultParams(6)
	p.MaxParents = 1
	m := train(t, bg, fg, p)
	for _, f := range m.factors {
		if len(f.parents) > 1 {
			t.Fatalf("position %d has %d parents", f.index, len(f.parents))
		}
	}
	p.MaxParents = 0
	m = train(t, bg, fg, p)
	if m.Edges() != 0 {
		t.Fatalf("edges learned with MaxParents=0")
	}
}

func TestTrainErrors(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	fg := randomWindows(r, 10, 5, nil)
	bg := randomWindows(r, 10, 4, nil)
	_, err := NetworkTrainer{}.Train(context.Background(), bg, fg, defaultParams(5))
	if !errors.Is(err, ErrLength) {
		t.Fatalf("got %v, want ErrLength", err)
	}
	if _, err := (NetworkTrainer{}).Train(context.Background(), nil, fg, defaultParams(5)); err == nil {
		t.Fatal("empty background accepted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (NetworkTrainer{}).Train(ctx, fg, fg, defaultParams(5)); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestConditionalNormalizes(t *testing.T) {
	f := newFactor(1, []int{0})
	counts := make([]float64, f.tableSize())
	counts[0b0110] = 5
	p := conditional(counts, f.shift)
	for parent := 0; parent < 4; parent++ {
		var z float64
		for v := 0; v < 4; v++ {
			z += p[parent<<2|v]
		}
		if math.Abs(z-1) > 1e-12 {
			t.Fatalf("parent %d sums to %v", parent, z)
		}
	}
	if got := p[0b0110]; math.Abs(got-6.0/9.0) > 1e-12 {
		t.Fatalf("P(g|c) = %v, want 6/9", got)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	fg := randomWindows(r, 800, 6, func(b []byte) { b[3] = b[1]; b[5] = 't' })
	bg := randomWindows(r, 800, 6, nil)
	m := train(t, bg, fg, defaultParams(6))

	node, err := NetworkCodec{}.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	text, err := yaml.Marshal(node)
	if err != nil {
		t.Fatal(err)
	}
	var back yaml.Node
	if err := yaml.Unmarshal(text, &back); err != nil {
		t.Fatal(err)
	}
	got, err := NetworkCodec{}.Decode(&back)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, text)
	}
	if got.Len() != 6 || got.Graph(2) != m.Graph(2) {
		t.Fatalf("structure changed:\n%s\nvs\n%s", got.Graph(2), m.Graph(2))
	}
	for _, q := range fg[:50] {
		a, b := m.Eval(q, 0), got.Eval(q, 0)
		if math.Abs(a-b) > 1e-9*math.Max(1, a) {
			t.Fatalf("Eval drifted: %v vs %v", a, b)
		}
	}
}

func TestCodecRejectsMalformed(t *testing.T) {
	docs := []string{
		"n: 0\npositions: []\n",
		"n: 4\npositions:\n  - {index: 7, parents: [], fg: [0.25,0.25,0.25,0.25], bg: [0.25,0.25,0.25,0.25]}\n",
		"n: 4\npositions:\n  - {index: 1, parents: [], fg: [0.5,0.5], bg: [0.25,0.25,0.25,0.25]}\n",
		"n: 4\npositions:\n  - {index: 1, parents: [1], fg: [], bg: []}\n",
		"n: 4\npositions:\n  - {index: 1, parents: [], fg: [0,0.5,0.25,0.25], bg: [0.25,0.25,0.25,0.25]}\n",
		"n: [oops]\n",
	}
	for _, d := range docs {
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(d), &node); err != nil {
			t.Fatal(err)
		}
		if _, err := (NetworkCodec{}).Decode(&node); !errors.Is(err, ErrMalformed) {
			t.Errorf("accepted %q: %v", d, err)
		}
	}
	if _, err := (NetworkCodec{}).Decode(&yaml.Node{}); !errors.Is(err, ErrMalformed) {
		t.Errorf("empty node: %v", err)
	}
}

func TestGraphLabelsRelativeToOffset(t *testing.T) {
	m := &Network{n: 5, factors: []*factor{newFactor(3, []int{1})}}
	g := m.Graph(2)
	for _, want := range []string{"digraph {", `n3 [label="1"`, `n1 [label="-1"`, "n1 -> n3;"} {
		if !strings.Contains(g, want) {
			t.Errorf("graph missing %q:\n%s", want, g)
		}
	}
}

func TestLinks(t *testing.T) {
	m := &Network{n: 6, factors: []*factor{newFactor(2, nil), newFactor(4, []int{1, 3})}}
	var st Structure = m
	if got := st.Positions(); len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("positions %v", got)
	}
	got := st.Links()
	if len(got) != 2 || got[0] != [2]int{1, 4} || got[1] != [2]int{3, 4} {
		t.Fatalf("links %v", got)
	}
	if m.Edges() != 2 {
		t.Fatalf("edges %d", m.Edges())
	}
}
