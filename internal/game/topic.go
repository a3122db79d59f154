package game

import (
	"fmt"
	"strings"

	"odai-party/internal/content"
)

const (
	DefaultTemplate           = "「%s」から始まる「%s」といえば？"
	DefaultReverseProbability = 0.1
)

type Topic struct {
	Text    string
	Reverse bool
}

// Generator turns a content data set into prompt sentences.
type Generator struct {
	Template string
	// ReverseProbability is the chance a draw is forced onto the inverted word form.
	ReverseProbability float64
	Source             Source
}

func NewGenerator() *Generator {
	return &Generator{
		Template:           DefaultTemplate,
		ReverseProbability: DefaultReverseProbability,
		Source:             DefaultSource,
	}
}

// ValidTemplate reports whether template embeds exactly the initial and the word.
func ValidTemplate(template string) bool {
	return strings.Count(template, "%s") == 2 && strings.Count(template, "%") == 2
}

// Generate draws an initial and a word and formats them. It reports false when the
// data set is missing or either list is empty; callers treat that as "cannot draw now".
func (g *Generator) Generate(data *content.DataSet) (Topic, bool) {
	if data == nil {
		return Topic{}, false
	}
	src := g.Source
	if src == nil {
		src = DefaultSource
	}
	initial, ok := WeightedSelect(data.Initial, src)
	if !ok {
		return Topic{}, false
	}
	word, ok := WeightedSelect(data.Words, src)
	if !ok {
		return Topic{}, false
	}

	reverse := src.Float64() < g.ReverseProbability
	text := word.Not
	if !reverse && src.Float64() < 0.5 {
		text = word.Normal
	}

	template := g.Template
	if !ValidTemplate(template) {
		template = DefaultTemplate
	}
	return Topic{
		Text:    fmt.Sprintf(template, initial.Key, text),
		Reverse: reverse,
	}, true
}
