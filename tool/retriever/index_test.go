package retriever_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/alfred/tool/retriever"
	"github.com/m-mizutani/gt"
)

func guests() []retriever.Document {
	return []retriever.Document{
		retriever.Guest{
			Name:        "Ada Lovelace",
			Relation:    "best friend",
			Description: "Lady Ada Lovelace is my best friend. She is an esteemed mathematician and friend.",
			Email:       "ada.lovelace@example.com",
		}.Document(),
		retriever.Guest{
			Name:        "Dr. Nikola Tesla",
			Relation:    "old friend from university days",
			Description: "Dr. Nikola Tesla is an old friend from your university days. He has recently patented a new wireless energy transmission system.",
			Email:       "nikola.tesla@gmail.com",
		}.Document(),
		retriever.Guest{
			Name:        "Marie Curie",
			Relation:    "no relation",
			Description: "Marie Curie was a groundbreaking physicist and chemist, famous for her research on radioactivity.",
			Email:       "marie.curie@example.com",
		}.Document(),
		retriever.Guest{
			Name:        "Charles Babbage",
			Relation:    "colleague of Ada",
			Description: "Charles Babbage designed the analytical engine.",
			Email:       "charles.babbage@example.com",
		}.Document(),
	}
}

func TestNewIndexEmpty(t *testing.T) {
	_, err := retriever.NewIndex(nil)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, retriever.ErrEmptyCorpus))

	_, err = retriever.NewIndex([]retriever.Document{})
	gt.True(t, errors.Is(err, retriever.ErrEmptyCorpus))
}

func TestIndexSearch(t *testing.T) {
	idx, err := retriever.NewIndex(guests())
	gt.NoError(t, err).Required()
	gt.Equal(t, idx.Len(), 4)

	t.Run("exact name ranks first", func(t *testing.T) {
		results := idx.Search("Marie Curie", 3)
		gt.A(t, results).Longer(0)
		gt.Equal(t, results[0].Document.Metadata.Name, "Marie Curie")
	})

	t.Run("results are sorted by descending score", func(t *testing.T) {
		results := idx.Search("Ada friend", 0)
		gt.A(t, results).Longer(1)
		for i := 1; i < len(results); i++ {
			gt.True(t, results[i-1].Score >= results[i].Score)
		}
		gt.Equal(t, results[0].Document.Metadata.Name, "Ada Lovelace")
	})

	t.Run("at most k results", func(t *testing.T) {
		results := idx.Search("friend ada tesla curie babbage", 2)
		gt.A(t, results).Length(2)
	})

	t.Run("case and punctuation are ignored", func(t *testing.T) {
		results := idx.Search("TESLA?!", 3)
		gt.A(t, results).Length(1)
		gt.Equal(t, results[0].Document.Metadata.Name, "Dr. Nikola Tesla")
	})

	t.Run("no overlap", func(t *testing.T) {
		gt.A(t, idx.Search("zeppelin", 3)).Length(0)
		gt.A(t, idx.Search("", 3)).Length(0)
		gt.A(t, idx.Search("   ...   ", 3)).Length(0)
	})

	t.Run("all scores are positive", func(t *testing.T) {
		for _, r := range idx.Search("the friend of Ada", 0) {
			gt.True(t, r.Score > 0)
		}
	})
}

func TestIndexTermInEveryDocumentStillMatches(t *testing.T) {
	docs := []retriever.Document{
		{Content: "gala guest alpha"},
		{Content: "gala guest beta"},
		{Content: "gala guest gamma"},
	}
	idx, err := retriever.NewIndex(docs)
	gt.NoError(t, err).Required()

	results := idx.Search("gala", 3)
	gt.A(t, results).Length(3)
	// Equal scores keep corpus order
	gt.Equal(t, results[0].Document.Content, "gala guest alpha")
	gt.Equal(t, results[2].Document.Content, "gala guest gamma")
}

func TestIndexIsImmutable(t *testing.T) {
	docs := []retriever.Document{{Content: "Ada Lovelace"}}
	idx, err := retriever.NewIndex(docs)
	gt.NoError(t, err).Required()

	docs[0].Content = "changed"
	results := idx.Search("lovelace", 1)
	gt.A(t, results).Length(1)
	gt.Equal(t, results[0].Document.Content, "Ada Lovelace")
}

func TestIndexParameters(t *testing.T) {
	docs := []retriever.Document{
		{Content: "tesla tesla tesla tesla"},
		{Content: "tesla coil"},
	}
	saturated, err := retriever.NewIndex(docs, retriever.WithK1(0))
	gt.NoError(t, err).Required()

	// With k1=0 the score ignores term frequency
	results := saturated.Search("tesla", 2)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].Score, results[1].Score)

	noLength, err := retriever.NewIndex(docs, retriever.WithB(0))
	gt.NoError(t, err).Required()
	results = noLength.Search("tesla", 2)
	gt.Equal(t, results[0].Document.Content, "tesla tesla tesla tesla")
}
