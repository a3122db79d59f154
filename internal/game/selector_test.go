package game

import (
	"math"
	"math/rand/v2"
	"testing"
)

type tier struct {
	name string
	rare int
}

func (t tier) Rarity() int { return t.rare }

type fixedSource []float64

func (f *fixedSource) Float64() float64 {
	v := (*f)[0]
	if len(*f) > 1 {
		*f = (*f)[1:]
	}
	return v
}

func TestWeight(t *testing.T) {
	cases := map[int]int{-2: 10, 0: 10, 1: 7, 2: 4, 3: 1, 4: 1, 99: 1}
	for rarity, want := range cases {
		if got := Weight(rarity); got != want {
			t.Errorf("Weight(%d) = %d, want %d", rarity, got, want)
		}
	}
}

func TestWeightedSelectEmpty(t *testing.T) {
	if _, ok := WeightedSelect[tier](nil, nil); ok {
		t.Fatal("expected no selection from empty input")
	}
}

func TestWeightedSelectSingle(t *testing.T) {
	got, ok := WeightedSelect([]tier{{name: "only", rare: 3}}, nil)
	if !ok || got.name != "only" {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
}

func TestWeightedSelectBoundaries(t *testing.T) {
	items := []tier{{"a", 0}, {"b", 1}, {"c", 2}, {"d", 3}}
	// total 22: a covers (0,10], b (10,17], c (17,21], d (21,22]
	cases := []struct {
		roll float64
		want string
	}{
		{0, "a"},
		{9.5 / 22, "a"},
		{10.5 / 22, "b"},
		{17.5 / 22, "c"},
		{21.5 / 22, "d"},
	}
	for _, tc := range cases {
		src := fixedSource{tc.roll}
		got, _ := WeightedSelect(items, &src)
		if got.name != tc.want {
			t.Errorf("roll %.3f: got %s, want %s", tc.roll, got.name, tc.want)
		}
	}
}

func TestWeightedSelectFallsBackToFirst(t *testing.T) {
	items := []tier{{"a", 3}, {"b", 3}}
	src := fixedSource{2.0}
	got, ok := WeightedSelect(items, &src)
	if !ok || got.name != "a" {
		t.Fatalf("got %+v ok=%v, want first item", got, ok)
	}
}

func TestWeightedSelectDistribution(t *testing.T) {
	items := []tier{{"a", 0}, {"b", 1}, {"c", 2}, {"d", 3}}
	rng := rand.New(rand.NewPCG(7, 11))
	const draws = 220000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		got, _ := WeightedSelect(items, rng)
		counts[got.name]++
	}
	want := map[string]float64{"a": 10.0 / 22, "b": 7.0 / 22, "c": 4.0 / 22, "d": 1.0 / 22}
	for name, p := range want {
		freq := float64(counts[name]) / draws
		if math.Abs(freq-p) > 0.01 {
			t.Errorf("%s: frequency %.4f, want about %.4f", name, freq, p)
		}
	}
}

func TestWeightedSelectUniformWithinTier(t *testing.T) {
	items := []tier{{"a", 1}, {"b", 1}, {"c", 1}}
	rng := rand.New(rand.NewPCG(1, 2))
	const draws = 90000
	counts := map[string]int{}
	for i := 0; i < draws; i++ {
		got, _ := WeightedSelect(items, rng)
		counts[got.name]++
	}
	for _, item := range items {
		freq := float64(counts[item.name]) / draws
		if math.Abs(freq-1.0/3) > 0.01 {
			t.Errorf("%s: frequency %.4f, want about 0.333", item.name, freq)
		}
	}
}
