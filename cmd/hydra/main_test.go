package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute 以给定配置内容运行根命令，返回 stdout 与错误。
func execute(t *testing.T, configBody string, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hydra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configBody), 0o644))

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", path, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestDecode_DirectLink(t *testing.T) {
	out, err := execute(t, "", "decode", "https://cdn.test/v/ep1.mp4", "--direct", "--name", "HD")
	require.NoError(t, err)

	var v decodeView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.OK)
	assert.True(t, v.Direct)
	require.Len(t, v.Options, 1)
	assert.Equal(t, "https://cdn.test/v/ep1.mp4", v.Options[0].Link)
	assert.Equal(t, "HD", v.Options[0].Name)
}

func TestDecode_UnsupportedExitCode(t *testing.T) {
	out, err := execute(t, "", "decode", "https://unknown-host.test/embed/1")
	require.Error(t, err)
	assert.Empty(t, out)

	var ee *exitError
	require.True(t, errors.As(err, &ee), "err=%v", err)
	assert.Equal(t, exitUnsupported, ee.code)
}

func TestDecode_GoCDN(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gocdn.php" || r.URL.Query().Get("v") != "xyz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"file":"https://media.test/xyz.mp4"}`))
	}))
	t.Cleanup(srv.Close)

	out, err := execute(t, "gocdn:\n  base_url: "+srv.URL+"\n", "decode", "https://player.test/gocdn.html#xyz", "--name", "Fembed")
	require.NoError(t, err)

	var v decodeView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.OK)
	assert.Equal(t, "gocdn", v.Decoder)
	require.Len(t, v.Options, 1)
	assert.Equal(t, "https://media.test/xyz.mp4", v.Options[0].Link)
	assert.Equal(t, "Fembed", v.Options[0].Name)
}

func TestDecode_FailedExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"file":""}`))
	}))
	t.Cleanup(srv.Close)

	out, err := execute(t, "gocdn:\n  base_url: "+srv.URL+"\n", "decode", "https://player.test/gocdn.html#xyz")
	var ee *exitError
	require.True(t, errors.As(err, &ee), "err=%v", err)
	assert.Equal(t, 1, ee.code)

	var v decodeView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.OK)
	assert.Empty(t, v.Options)
	assert.NotEmpty(t, v.Error)
}

func TestInfo_RecordWithRelatedAndPages(t *testing.T) {
	var comments atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	page := func(name string) http.HandlerFunc {
		body, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		html := strings.ReplaceAll(string(body), "{{base}}", srv.URL)
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(html))
		}
	}
	mux.HandleFunc("/anime/dungeon-meshi", page("series.html"))
	mux.HandleFunc("/anime/dungeon-meshi-movie", page("movie.html"))
	mux.HandleFunc("/embed.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`var s="https://c.disquscdn.com/next/embed/load.abc123.js";`))
	})
	mux.HandleFunc("/comments/", func(w http.ResponseWriter, r *http.Request) {
		comments.Add(1)
		if r.URL.Query().Get("version") != "abc123" {
			http.Error(w, "bad version", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`<html><script id="disqus-threadData" type="text/json">{"response":{"thread":{"posts":7}}}</script></html>`))
	})

	cfg := "disqus:\n  embed_url: " + srv.URL + "/embed.js\n  comments_url: " + srv.URL + "/comments/\n"
	out, err := execute(t, cfg, "info", srv.URL+"/anime/dungeon-meshi", "--pages", "5")
	require.NoError(t, err)

	var v recordView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 3990, v.ID)
	assert.Equal(t, "Dungeon Meshi", v.Name)
	assert.Equal(t, srv.URL+"/anime/dungeon-meshi", v.Link)
	assert.False(t, v.State.Completed)
	assert.Equal(t, "thursday", v.State.Day)
	require.NotNil(t, v.Ranking)
	assert.Equal(t, 1200, v.Ranking.Votes)
	assert.Empty(t, v.Sections)

	require.Len(t, v.Related, 1)
	assert.Equal(t, 4001, v.Related[0].ID)
	assert.Equal(t, "Pelicula", v.Related[0].Relation)

	assert.Equal(t, "paged", v.Chapters.Kind)
	assert.Equal(t, 12, v.Chapters.Total)
	require.Len(t, v.Chapters.Pages, 2, "12 个章节只有两页")
	assert.Len(t, v.Chapters.Pages[0].Items, 10)
	assert.Len(t, v.Chapters.Pages[1].Items, 2)
	assert.Nil(t, v.Chapters.Pages[1].Next)
	for _, p := range v.Chapters.Pages {
		assert.Empty(t, p.Error)
		for _, c := range p.Items {
			require.NotNil(t, c.Comments)
			assert.Equal(t, 7, *c.Comments)
		}
	}
	assert.EqualValues(t, 12, comments.Load())
}

func TestInfo_FetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := execute(t, "", "info", srv.URL+"/anime/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "获取详情页失败")
}

func TestInfo_NegativePages(t *testing.T) {
	_, err := execute(t, "", "info", "https://site.test/anime/x", "--pages", "-1")
	require.Error(t, err)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, err := execute(t, "log:\n  format: xml\n", "decode", "https://cdn.test/a.mp4", "--direct")
	require.Error(t, err)
}

func TestChapters_SingleChapterMovie(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	body, err := os.ReadFile(filepath.Join("testdata", "movie.html"))
	require.NoError(t, err)
	mux.HandleFunc("/anime/dungeon-meshi-movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.ReplaceAll(string(body), "{{base}}", srv.URL)))
	})

	out, err := execute(t, "", "chapters", srv.URL+"/anime/dungeon-meshi-movie")
	require.NoError(t, err)

	var v pageView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Items, 1)
	assert.Equal(t, srv.URL+"/ver/dungeon-meshi-movie-1", v.Items[0].Link)
	assert.Nil(t, v.Items[0].Comments)
}

func TestChapters_NoChapters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 class="Title">Empty</h1></body></html>`))
	}))
	t.Cleanup(srv.Close)

	_, err := execute(t, "", "chapters", srv.URL+"/anime/empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "没有章节")
}
