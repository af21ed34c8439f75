package retriever_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/m-mizutani/alfred/tool/retriever"
	"github.com/m-mizutani/gt"
)

// rowsServer serves guests from /rows. A positive limit caps the page length
// the way the datasets-server does.
func rowsServer(t *testing.T, guests []retriever.Guest, limit int) (*httptest.Server, *[]string) {
	t.Helper()
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/rows")
		q := r.URL.Query()
		gt.Equal(t, q.Get("dataset"), retriever.GuestDataset)
		gt.Equal(t, q.Get("split"), "train")
		offsets = append(offsets, q.Get("offset"))

		offset, _ := strconv.Atoi(q.Get("offset"))
		length, _ := strconv.Atoi(q.Get("length"))
		if limit > 0 && length > limit {
			length = limit
		}

		type row struct {
			RowIdx int             `json:"row_idx"`
			Row    retriever.Guest `json:"row"`
		}
		resp := struct {
			Rows         []row `json:"rows"`
			NumRowsTotal int   `json:"num_rows_total"`
		}{NumRowsTotal: len(guests)}
		for i := offset; i < offset+length && i < len(guests); i++ {
			resp.Rows = append(resp.Rows, row{RowIdx: i, Row: guests[i]})
		}

		w.Header().Set("Content-Type", "application/json")
		gt.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &offsets
}

func TestLoadGuests(t *testing.T) {
	input := []retriever.Guest{
		{Name: "Ada Lovelace", Relation: "best friend", Description: "mathematician", Email: "ada@example.com"},
		{Name: "Marie Curie", Relation: "no relation", Description: "physicist", Email: "marie@example.com"},
		{Name: "Nikola Tesla", Relation: "old friend", Description: "inventor", Email: "tesla@example.com"},
	}
	srv, offsets := rowsServer(t, input, 0)

	docs, err := retriever.LoadGuests(context.Background(),
		retriever.WithBaseURL(srv.URL),
		retriever.WithPageSize(2),
	)
	gt.NoError(t, err).Required()
	gt.A(t, docs).Length(3)
	gt.Equal(t, *offsets, []string{"0", "2"})

	gt.Equal(t, docs[0].Content, "Name: Ada Lovelace\nRelation: best friend\nDescription: mathematician\nEmail: ada@example.com")
	gt.Equal(t, docs[0].Metadata.Name, "Ada Lovelace")
	gt.Equal(t, docs[2].Metadata.Name, "Nikola Tesla")
}

func TestLoadGuestsEmptyDataset(t *testing.T) {
	srv, _ := rowsServer(t, nil, 0)

	docs, err := retriever.LoadGuests(context.Background(), retriever.WithBaseURL(srv.URL))
	gt.NoError(t, err)
	gt.A(t, docs).Length(0)

	// An empty corpus cannot produce a tool
	_, err = retriever.New(docs)
	gt.Error(t, err)
}

func TestLoadGuestsServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"The dataset does not exist."}`))
	}))
	defer srv.Close()

	_, err := retriever.LoadGuests(context.Background(), retriever.WithBaseURL(srv.URL))
	gt.Error(t, err)
	// Single attempt, no retry
	gt.Equal(t, calls, 1)
}

func TestLoadGuestsShortPages(t *testing.T) {
	var input []retriever.Guest
	for i := range 6 {
		input = append(input, retriever.Guest{Name: "guest" + strconv.Itoa(i)})
	}
	srv, offsets := rowsServer(t, input, 2)

	docs, err := retriever.LoadGuests(context.Background(),
		retriever.WithBaseURL(srv.URL),
		retriever.WithPageSize(4),
	)
	gt.NoError(t, err).Required()
	gt.A(t, docs).Length(6)
	gt.Equal(t, *offsets, []string{"0", "2", "4"})
	for i, doc := range docs {
		gt.Equal(t, doc.Metadata.Name, "guest"+strconv.Itoa(i))
	}
}

func TestLoadGuestsPageSizeIsClamped(t *testing.T) {
	var lengths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lengths = append(lengths, r.URL.Query().Get("length"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows":[{"row_idx":0,"row":{"name":"Ada Lovelace"}}],"num_rows_total":1}`))
	}))
	defer srv.Close()

	for _, n := range []int{500, 0} {
		_, err := retriever.LoadGuests(context.Background(),
			retriever.WithBaseURL(srv.URL),
			retriever.WithPageSize(n),
		)
		gt.NoError(t, err).Required()
	}
	gt.Equal(t, lengths, []string{"100", "1"})
}
