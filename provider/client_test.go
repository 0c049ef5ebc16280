package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchSendsQueryParams(t *testing.T) {
	var gotQtd, gotTopico string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQtd = r.URL.Query().Get("qtd")
		gotTopico = r.URL.Query().Get("topico")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	body, err := c.Fetch(context.Background(), 1, "Penal")
	require.NoError(t, err)

	assert.Equal(t, []byte(`[]`), body)
	assert.Equal(t, "1", gotQtd)
	assert.Equal(t, "Penal", gotTopico)
}

func TestClient_FetchOmitsEmptyTopic(t *testing.T) {
	var hasTopico bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasTopico = r.URL.Query().Has("topico")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), 3, "")
	require.NoError(t, err)
	assert.False(t, hasTopico)
}

func TestClient_FetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), 1, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_FetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := NewClient(srv.URL, time.Second)
	_, err := c.Fetch(context.Background(), 1, "")
	assert.Error(t, err)
}
