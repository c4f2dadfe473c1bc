package restfeature

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/golshani-mhd/grizzle-ingest/sourceopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoRequestRetriesFourFailuresThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 5 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	a := New(sourceopts.RESTOptions{URL: server.URL})
	body, err := a.doRequest(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 5, calls)
}

func TestDoRequestFailsAfterFiveFailuresExhaustingRetryBudget(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := New(sourceopts.RESTOptions{URL: server.URL})
	_, err := a.doRequest(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, maxRetryAttempts, calls)
}

func TestSpoolOffsetModePaginatesAcrossMultiplePages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("returnCountOnly") == "true" {
			fmt.Fprint(w, `{"count":3}`)
			return
		}
		offset, _ := strconv.Atoi(q.Get("resultOffset"))
		switch offset {
		case 0:
			fmt.Fprint(w, `{"features":[{"attributes":{"id":1}},{"attributes":{"id":2}}]}`)
		case 2:
			fmt.Fprint(w, `{"features":[{"attributes":{"id":3}}]}`)
		default:
			t.Errorf("unexpected resultOffset %d", offset)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"sites","type":"Table","supportsPagination":true,"maxRecordCount":2,"fields":[{"name":"id","type":"esriFieldTypeInteger"}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := New(sourceopts.RESTOptions{URL: server.URL})
	lines := make(chan sourceopts.Line, 10)
	a.Spool(context.Background(), lines)

	var got []string
	for line := range lines {
		require.NoError(t, line.Err)
		got = append(got, line.Text)
	}
	assert.Equal(t, []string{"1\n", "2\n", "3\n"}, got)
}

func TestSpoolOIDWindowModePaginatesByObjectIDWindow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("returnIdsOnly") == "true" {
			fmt.Fprint(w, `{"objectIds":[1,2,3]}`)
			return
		}
		switch q.Get("where") {
		case "id BETWEEN 1 AND 2":
			fmt.Fprint(w, `{"features":[{"attributes":{"id":1}},{"attributes":{"id":2}}]}`)
		case "id BETWEEN 3 AND 4":
			fmt.Fprint(w, `{"features":[{"attributes":{"id":3}}]}`)
		default:
			t.Errorf("unexpected where clause %q", q.Get("where"))
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"sites","type":"Table","objectIdField":"id","maxRecordCount":2,"fields":[{"name":"id","type":"esriFieldTypeOID"}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	a := New(sourceopts.RESTOptions{URL: server.URL})
	lines := make(chan sourceopts.Line, 10)
	a.Spool(context.Background(), lines)

	var got []string
	for line := range lines {
		require.NoError(t, line.Err)
		got = append(got, line.Text)
	}
	assert.Equal(t, []string{"1\n", "2\n", "3\n"}, got)
}
