package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop/filedrop/internal/store"
)

func TestUploadSingleFile(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{"report.pdf": "%PDF-1.4 data"})
	require.Equal(t, http.StatusCreated, w.Code)

	var results []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 1)

	filename := results[0]["filename"]
	assert.Regexp(t, regexp.MustCompile(`^report_\d+\.pdf$`), filename)
	assert.Equal(t, "/files/"+url.PathEscape(filename), results[0]["url"])
}

func TestUploadMultipleFiles(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{
		"a.txt": "alpha",
		"b.txt": "bravo",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var results []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Len(t, results, 2)
	assert.Len(t, srv.Store().List(store.SortNewest), 2)
}

func TestUploadNoFiles(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadNotMultipart(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/api/upload", []byte("{}"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/upload", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestListFiles(t *testing.T) {
	srv := newTestServer(t)

	uploadFiles(t, srv, map[string]string{"one.png": "x"})

	var entries []store.Entry
	w := doJSON(t, srv, http.MethodGet, "/api/files", nil, &entries)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, entries, 1)
	assert.Equal(t, "png", entries[0].Format)
	assert.Equal(t, int64(1), entries[0].Size)
}

func TestListFilesSortParam(t *testing.T) {
	srv := newTestServer(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"c.txt", "a.txt", "b.txt"} {
		path := filepath.Join(srv.Store().Dir(), name)
		require.NoError(t, os.MkdirAll(srv.Store().Dir(), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mtime := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	var entries []store.Entry
	w := doJSON(t, srv, http.MethodGet, "/api/files?sort=name", nil, &entries)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, entries, 3)
	assert.Equal(t, "a.txt", entries[0].Filename)
	assert.Equal(t, "b.txt", entries[1].Filename)
	assert.Equal(t, "c.txt", entries[2].Filename)
}

func TestListFilesEmptyStoreIsEmptyArray(t *testing.T) {
	srv := newTestServer(t)

	var entries []store.Entry
	w := doJSON(t, srv, http.MethodGet, "/api/files", nil, &entries)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, entries)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestFetchFile(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{"pic.png": "PNGDATA"})
	var results []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))

	get := doJSON(t, srv, http.MethodGet, results[0]["url"], nil, nil)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "PNGDATA", get.Body.String())
	assert.Equal(t, "image/png", get.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", get.Header().Get("Cache-Control"))
}

func TestFetchMissingFile(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/files/absent.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFetchRejectsSeparatorInName(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/files/a%2Fb", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteFileByPath(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{"bye.txt": "x"})
	var results []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))

	del := doJSON(t, srv, http.MethodDelete, results[0]["url"], nil, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Empty(t, srv.Store().List(store.SortNewest))
}

func TestDeleteFileByQuery(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{"bye.txt": "x"})
	var results []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))

	del := doJSON(t, srv, http.MethodDelete, "/api/delete?filename="+url.QueryEscape(results[0]["filename"]), nil, nil)
	assert.Equal(t, http.StatusNoContent, del.Code)
}

func TestDeleteMissingFilename(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodDelete, "/api/delete", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMalformedFilename(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodDelete, "/api/delete?filename="+url.QueryEscape("a/b"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMissingFile(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, http.MethodDelete, "/api/delete?filename=absent.txt", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadThenListEndToEnd(t *testing.T) {
	srv := newTestServer(t)

	w := uploadFiles(t, srv, map[string]string{"report.pdf": "content"})
	require.Equal(t, http.StatusCreated, w.Code)

	var entries []store.Entry
	list := doJSON(t, srv, http.MethodGet, "/api/files", nil, &entries)
	require.Equal(t, http.StatusOK, list.Code)
	require.Len(t, entries, 1)
	assert.Equal(t, "pdf", entries[0].Format)
	assert.Regexp(t, `^report_\d+\.pdf$`, entries[0].Filename)
}
