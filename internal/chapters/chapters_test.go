package chapters

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/hydra/internal/domain"
)

type fakeBridge struct {
	probeErr   error
	probeCalls atomic.Int32

	mu        sync.Mutex
	counts    map[string]int
	failLinks map[string]bool
	seen      []string
	versions  []string
}

func (b *fakeBridge) ProbeVersion(ctx context.Context) (string, error) {
	b.probeCalls.Add(1)
	if b.probeErr != nil {
		return "", b.probeErr
	}
	return "a1b2c3", nil
}

func (b *fakeBridge) CommentCount(ctx context.Context, version, link string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seen = append(b.seen, link)
	b.versions = append(b.versions, version)
	if b.failLinks[link] {
		return 0, errors.New("bridge unreachable")
	}
	return b.counts[link], nil
}

func fifteen() Context {
	entries := make([]string, 15)
	for i := range entries {
		entries[i] = strconv.Itoa(15 - i)
	}
	return Context{
		SeriesID:          "3921",
		SeriesLink:        "https://www3.site.test/anime/frieren",
		ChapterLinkBase:   "https://www3.site.test/ver/frieren-",
		ThumbnailTemplate: "https://cdn.site.test/screenshots/{series}/{chapter}/th_3.jpg",
		Entries:           entries,
	}
}

func TestFormatIndex(t *testing.T) {
	cases := []struct {
		raw     string
		display string
		number  float64
		ok      bool
	}{
		{"1", "1", 1, true},
		{"1.5", "1.5", 1.5, true},
		{"12.0", "12", 12, true},
		{" 3 ", "3", 3, true},
		{"1.25", "1.2", 1.25, true},
		{"1.35", "1.4", 1.35, true},
		{"ova", "ova", 0, false},
	}
	for _, c := range cases {
		display, number, ok := FormatIndex(c.raw)
		assert.Equal(t, c.display, display, "raw=%q", c.raw)
		assert.InDelta(t, c.number, number, 1e-9, "raw=%q", c.raw)
		assert.Equal(t, c.ok, ok, "raw=%q", c.raw)
	}
}

func TestContext_Chapter(t *testing.T) {
	ch := fifteen().Chapter("7")
	assert.Equal(t, "3921", ch.SeriesID)
	assert.Equal(t, "https://www3.site.test/anime/frieren", ch.SeriesLink)
	assert.Equal(t, "https://www3.site.test/ver/frieren-7", ch.Link)
	assert.Equal(t, "https://cdn.site.test/screenshots/3921/7/th_3.jpg", ch.Thumbnail)
	assert.InDelta(t, 7.0, ch.Number, 1e-9)
	assert.Nil(t, ch.Comments)
}

func TestSource_PagesOfFifteen(t *testing.T) {
	b := &fakeBridge{counts: map[string]int{"https://www3.site.test/ver/frieren-15": 120, "https://www3.site.test/ver/frieren-1": 7}}
	s := New(fifteen(), b, nil)
	assert.Equal(t, 15, s.Len())
	assert.Equal(t, 10, s.PageSize())

	p0, err := s.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, p0.Items, 10)
	assert.Nil(t, p0.PrevKey)
	require.NotNil(t, p0.NextKey)
	assert.Equal(t, 1, *p0.NextKey)
	assert.Equal(t, "https://www3.site.test/ver/frieren-15", p0.Items[0].Link)
	require.NotNil(t, p0.Items[0].Comments)
	assert.Equal(t, 120, *p0.Items[0].Comments)

	p1, err := s.Load(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, p1.Items, 5)
	require.NotNil(t, p1.PrevKey)
	assert.Equal(t, 0, *p1.PrevKey)
	assert.Nil(t, p1.NextKey)
	last := p1.Items[4]
	assert.Equal(t, "https://www3.site.test/ver/frieren-1", last.Link)
	require.NotNil(t, last.Comments)
	assert.Equal(t, 7, *last.Comments)

	// 每个章节都单独查询一次评论数，且都带着探测到的版本。
	b.mu.Lock()
	assert.Len(t, b.seen, 15)
	for _, v := range b.versions {
		assert.Equal(t, "a1b2c3", v)
	}
	b.mu.Unlock()

	assert.EqualValues(t, 1, b.probeCalls.Load(), "版本只探测一次")
}

func TestSource_PastEndIsEmpty(t *testing.T) {
	s := New(fifteen(), &fakeBridge{}, nil)
	p, err := s.Load(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Nil(t, p.NextKey)
}

func TestSource_NegativeKey(t *testing.T) {
	s := New(fifteen(), &fakeBridge{}, nil)
	_, err := s.Load(context.Background(), -1)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "key", le.Stage)
}

func TestSource_ProbeFailureBlocksEveryPage(t *testing.T) {
	b := &fakeBridge{probeErr: errors.New("embed.js 404")}
	s := New(fifteen(), b, nil)

	for _, key := range []int{0, 1} {
		_, err := s.Load(context.Background(), key)
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "probe", le.Stage)
		assert.Equal(t, key, le.Key)
	}
	// 失败不缓存：每次加载都会重新探测。
	assert.EqualValues(t, 2, b.probeCalls.Load())

	b.mu.Lock()
	assert.Empty(t, b.seen, "探测失败时不应查询评论数")
	b.mu.Unlock()
}

func TestSource_PageFailureDoesNotInvalidateEarlierPages(t *testing.T) {
	b := &fakeBridge{counts: map[string]int{}}
	s := New(fifteen(), b, nil)

	p0, err := s.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, p0.Items, 10)

	b.mu.Lock()
	b.failLinks = map[string]bool{"https://www3.site.test/ver/frieren-3": true}
	b.mu.Unlock()

	_, err = s.Load(context.Background(), 1)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "comments", le.Stage)

	// 第 0 页结果仍然有效，且可以重新加载。
	assert.Len(t, p0.Items, 10)
	again, err := s.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, p0.Items[0].Link, again.Items[0].Link)
}

func TestSource_ConcurrentFirstLoadProbesOnce(t *testing.T) {
	b := &fakeBridge{}
	s := New(fifteen(), b, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Load(context.Background(), i%2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, b.probeCalls.Load())
}

func TestSource_ImplementsPager(t *testing.T) {
	var p domain.ChapterPager = New(fifteen(), &fakeBridge{}, nil)
	assert.Equal(t, 15, p.Len())
}
