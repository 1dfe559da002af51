package quiz

import (
	"strings"

	"github.com/samber/lo"
)

// Delimiter separates the target word from the source word on a word-list line.
const Delimiter = " – "

const (
	SourceLanguage = "Slovak"
	TargetLanguage = "German"
)

type WordPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Dictionary maps source words to target words and remembers the order in
// which source words were first seen.
type Dictionary struct {
	order []string
	pairs map[string]string
}

func NewDictionary() *Dictionary {
	return &Dictionary{pairs: make(map[string]string)}
}

// ParseLines builds a dictionary from "<target> – <source>" lines. Lines
// without the delimiter, or with an empty side, are skipped.
func ParseLines(lines []string) *Dictionary {
	d := NewDictionary()
	for _, line := range lines {
		target, source, ok := strings.Cut(strings.TrimSpace(line), Delimiter)
		if !ok {
			continue
		}
		target, source = strings.TrimSpace(target), strings.TrimSpace(source)
		if target == "" || source == "" {
			continue
		}
		d.Set(source, target)
	}
	return d
}

func ParseText(text string) *Dictionary {
	return ParseLines(strings.Split(text, "\n"))
}

// Set overwrites the target of an existing source word in place.
func (d *Dictionary) Set(source, target string) {
	if _, exists := d.pairs[source]; !exists {
		d.order = append(d.order, source)
	}
	d.pairs[source] = target
}

func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

func (d *Dictionary) Lookup(source string) (string, bool) {
	if d == nil {
		return "", false
	}
	target, ok := d.pairs[source]
	return target, ok
}

// SourceWords returns a fresh copy of the source words in insertion order.
func (d *Dictionary) SourceWords() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.order...)
}

// TargetWords returns the distinct target words ordered by first appearance.
func (d *Dictionary) TargetWords() []string {
	if d == nil {
		return nil
	}
	return lo.Uniq(lo.Map(d.order, func(source string, _ int) string {
		return d.pairs[source]
	}))
}

// SourcesFor lists every source word that translates to target, in insertion order.
func (d *Dictionary) SourcesFor(target string) []string {
	if d == nil {
		return nil
	}
	return lo.Filter(d.order, func(source string, _ int) bool {
		return d.pairs[source] == target
	})
}

func (d *Dictionary) Pairs() []WordPair {
	if d == nil {
		return nil
	}
	return lo.Map(d.order, func(source string, _ int) WordPair {
		return WordPair{Source: source, Target: d.pairs[source]}
	})
}

func (d *Dictionary) Clone() *Dictionary {
	c := NewDictionary()
	if d == nil {
		return c
	}
	c.order = append(c.order, d.order...)
	for k, v := range d.pairs {
		c.pairs[k] = v
	}
	return c
}
