// Package game holds the pure rules of the word-prompt game: weighted draws,
// topic generation and the phase machine. Nothing here touches storage.
package game

import "math/rand/v2"

const (
	baseWeight    = 10
	rarityPenalty = 3
	minWeight     = 1
)

// Rarer is anything drawn by rarity tier.
type Rarer interface {
	Rarity() int
}

// Source is the randomness a draw consumes. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource draws from the process-wide generator.
var DefaultSource Source = globalSource{}

// Weight maps a rarity tier to its draw weight: 0→10, 1→7, 2→4, 3 and up→1.
func Weight(rarity int) int {
	if rarity < 0 {
		rarity = 0
	}
	weight := baseWeight - rarity*rarityPenalty
	if weight < minWeight {
		return minWeight
	}
	return weight
}

// WeightedSelect draws one item with probability proportional to its weight.
// It reports false only for empty input.
func WeightedSelect[T Rarer](items []T, src Source) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	if src == nil {
		src = DefaultSource
	}
	weights := make([]int, len(items))
	total := 0
	for i, item := range items {
		weights[i] = Weight(item.Rarity())
		total += weights[i]
	}
	remaining := src.Float64() * float64(total)
	for i, item := range items {
		remaining -= float64(weights[i])
		if remaining <= 0 {
			return item, true
		}
	}
	return items[0], true
}
