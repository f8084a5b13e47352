package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/movie"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	cataloguc "github.com/kailas-cloud/moviesearch/internal/usecase/catalog"
	searchuc "github.com/kailas-cloud/moviesearch/internal/usecase/search"
)

type fakeCatalog struct {
	createErr  error
	dropped    bool
	dropDocs   bool
	stats      cataloguc.Stats
	loaded     string
	report     cataloguc.LoadReport
	movies     map[string]movie.Movie
	deletedIDs []string
}

func (f *fakeCatalog) CreateIndex(context.Context) error { return f.createErr }

func (f *fakeCatalog) DropIndex(_ context.Context, deleteDocs bool) error {
	f.dropped = true
	f.dropDocs = deleteDocs
	return nil
}

func (f *fakeCatalog) Stats(context.Context) (cataloguc.Stats, error) { return f.stats, nil }

func (f *fakeCatalog) Load(_ context.Context, r io.Reader) (cataloguc.LoadReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return cataloguc.LoadReport{}, err
	}
	f.loaded = string(data)
	return f.report, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (movie.Movie, error) {
	m, ok := f.movies[id]
	if !ok {
		return movie.Movie{}, domain.ErrMovieNotFound
	}
	return m, nil
}

func (f *fakeCatalog) Delete(_ context.Context, id string) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeSearch struct {
	resp    searchuc.Response
	err     error
	lastReq *request.Request
}

func (f *fakeSearch) Search(_ context.Context, req *request.Request) (searchuc.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

// setupTestServices installs fakes in place of the real connection.
func setupTestServices(t *testing.T, cat *fakeCatalog, srch *fakeSearch) {
	t.Helper()
	prev := initServices
	initServices = func(context.Context) error {
		catalogService = cat
		searchService = srch
		return nil
	}
	t.Cleanup(func() {
		initServices = prev
		catalogService = nil
		searchService = nil
	})
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}
