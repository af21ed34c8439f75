package retriever

import (
	"errors"
	"math"
	"sort"
	"strings"
	"unicode"
)

// ErrEmptyCorpus is returned when an index is built from no documents.
var ErrEmptyCorpus = errors.New("cannot build retriever index from an empty document list")

const (
	defaultK1 = 1.5
	defaultB  = 0.75
)

// Index is a read-only BM25 index over a fixed, ordered corpus.
type Index struct {
	docs      []Document
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64

	k1 float64
	b  float64
}

// IndexOption configures the BM25 parameters of an Index.
type IndexOption func(*Index)

// WithK1 sets the term frequency saturation parameter.
func WithK1(k1 float64) IndexOption {
	return func(x *Index) {
		x.k1 = k1
	}
}

// WithB sets the document length normalization parameter.
func WithB(b float64) IndexOption {
	return func(x *Index) {
		x.b = b
	}
}

// Result is a scored document returned by Search.
type Result struct {
	Document Document
	Score    float64
}

// NewIndex builds an index over docs. The documents are copied, and the
// index never changes afterwards.
func NewIndex(docs []Document, opts ...IndexOption) (*Index, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	x := &Index{
		docs:      append([]Document(nil), docs...),
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		idf:       make(map[string]float64),
		k1:        defaultK1,
		b:         defaultB,
	}
	for _, opt := range opts {
		opt(x)
	}

	docFreq := make(map[string]int)
	var total int
	for i, doc := range x.docs {
		tokens := tokenize(doc.Content)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term := range tf {
			docFreq[term]++
		}
		x.termFreqs[i] = tf
		x.docLens[i] = len(tokens)
		total += len(tokens)
	}
	x.avgDocLen = float64(total) / float64(len(x.docs))
	if x.avgDocLen == 0 {
		x.avgDocLen = 1
	}

	n := float64(len(x.docs))
	for term, df := range docFreq {
		// The +1 inside the log keeps idf positive for terms that occur in
		// most documents, so any term overlap yields a positive score.
		x.idf[term] = math.Log(1 + (n-float64(df)+0.5)/(float64(df)+0.5))
	}

	return x, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	return len(x.docs)
}

// Search returns up to k documents with a positive score for query, ordered
// by descending score. Documents with equal scores keep corpus order.
// A non-positive k returns every matching document.
func (x *Index) Search(query string, k int) []Result {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	var results []Result
	for i := range x.docs {
		if score := x.score(i, terms); score > 0 {
			results = append(results, Result{Document: x.docs[i], Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

func (x *Index) score(i int, terms []string) float64 {
	tf := x.termFreqs[i]
	norm := x.k1 * (1 - x.b + x.b*float64(x.docLens[i])/x.avgDocLen)

	var score float64
	for _, term := range terms {
		f, ok := tf[term]
		if !ok {
			continue
		}
		freq := float64(f)
		score += x.idf[term] * freq * (x.k1 + 1) / (freq + norm)
	}
	return score
}

// tokenize lowercases text and splits it on every rune that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
