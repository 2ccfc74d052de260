package record

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/hydra/internal/chapters"
	"github.com/John-Robertt/hydra/internal/domain"
	"github.com/John-Robertt/hydra/internal/extract"
)

func loadFixture(t *testing.T, name, link string) *goquery.Document {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	if link != "" {
		doc.Url, err = url.Parse(link)
		require.NoError(t, err)
	}
	return doc
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const seriesLink = "https://www3.site.test/anime/sousou-no-frieren"

type stubBridge struct{ probes atomic.Int32 }

func (b *stubBridge) ProbeVersion(context.Context) (string, error) {
	b.probes.Add(1)
	return "v1", nil
}

func (b *stubBridge) CommentCount(_ context.Context, _ string, link string) (int, error) {
	return len(link), nil
}

type mapFetcher struct {
	mu    sync.Mutex
	calls []string
	recs  map[string]*domain.InfoRecord
}

func (f *mapFetcher) FetchRecord(_ context.Context, link string) (*domain.InfoRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, link)
	f.mu.Unlock()
	rec, ok := f.recs[link]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

type fakeEnricher struct {
	title    string
	altNames []string
}

func (e *fakeEnricher) Build(_ context.Context, title string, altNames []string) []domain.Section {
	e.title = title
	e.altNames = altNames
	return []domain.Section{{Title: "Alternative names", Payload: domain.TextData{Text: strings.Join(altNames, "\n")}}}
}

func TestDeriveSchedule(t *testing.T) {
	l := DefaultLayout()

	d := extract.FromDocument(loadFixture(t, "series.html", seriesLink))
	st := DeriveSchedule(d, l)
	require.False(t, st.Completed)
	require.NotNil(t, st.Day, "2024-01-05 应解析出放送日")
	assert.Equal(t, domain.Friday, *st.Day)

	d = extract.FromDocument(loadFixture(t, "movie.html", ""))
	assert.True(t, DeriveSchedule(d, l).Completed, "带完结 class 时即为完结，不看脚本")

	d = extract.FromDocument(loadFixture(t, "bare.html", ""))
	st = DeriveSchedule(d, l)
	assert.False(t, st.Completed)
	assert.Nil(t, st.Day, "日期非法时降级为未知放送日")
}

func TestWeekdayFromLiteral(t *testing.T) {
	day := weekdayFromLiteral(`"1","x","y","2023-09-29"`)
	require.NotNil(t, day)
	assert.Equal(t, domain.Friday, *day)

	assert.Nil(t, weekdayFromLiteral(`"1","x","2023-09-29"`), "字段数不为 4")
	assert.Nil(t, weekdayFromLiteral(`"1","x","y","29/09/2023"`))
	assert.Nil(t, weekdayFromLiteral(""))
}

func TestDeriveSchedule_NoStatusNoScript(t *testing.T) {
	d := extract.FromDocument(parseHTML(t, `<html><body></body></html>`))
	st := DeriveSchedule(d, DefaultLayout())
	assert.False(t, st.Completed)
	assert.Nil(t, st.Day)
}

func TestSplitChapterLiteral(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, SplitChapterLiteral("[1,x],[2,x]"))
	assert.Equal(t, []string{"3", "2.5", "1"}, SplitChapterLiteral("[[3,100],[2.5,99],[1,98]]"))
	assert.Equal(t, []string{"7"}, SplitChapterLiteral("[7]"), "没有逗号时整组即编号")
	assert.Nil(t, SplitChapterLiteral("[]"))
	assert.Nil(t, SplitChapterLiteral("  "))
	assert.Equal(t, []string{"1", "2"}, SplitChapterLiteral("[1, x], [2, x]"), "组间空白不影响拆分")
	assert.Equal(t, []string{"12.5", "12"}, SplitChapterLiteral(" [ [12.5, 7] ,\n [12,6] ] "))
	assert.Equal(t, []string{"4"}, SplitChapterLiteral("[4,1],[5,2"), "未闭合的组丢弃")
}

func TestBuildChapters_WrappedLiteral(t *testing.T) {
	html := `<html><head><link rel="canonical" href="https://x.test/anime/s"></head><body>
<script>var episodes = [[3, 100], [2, 99], [1, 98]];</script></body></html>`
	l := DefaultLayout()
	l.ChapterList = extract.MustPattern(`episodes = (\[.*\]);`)
	d := extract.FromDocument(parseHTML(t, html))
	paged, ok := BuildChapters(d, l, &stubBridge{}, nil).(domain.PagedChapters)
	require.True(t, ok)
	page, err := paged.Pager.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "https://x.test/ver/s-3", page.Items[0].Link)
	assert.InDelta(t, 3.0, page.Items[0].Number, 1e-9)
}

func TestBuildChapters_Paged(t *testing.T) {
	bridge := &stubBridge{}
	d := extract.FromDocument(loadFixture(t, "series.html", seriesLink))

	data := BuildChapters(d, DefaultLayout(), bridge, nil)
	paged, ok := data.(domain.PagedChapters)
	require.True(t, ok, "剧集应构造分页来源，got %T", data)
	assert.Equal(t, 15, paged.Pager.Len())
	assert.Equal(t, int32(0), bridge.probes.Load(), "构造阶段不应探测评论组件")

	page, err := paged.Pager.Load(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 10)
	first := page.Items[0]
	assert.Equal(t, "https://www3.site.test/ver/sousou-no-frieren-15", first.Link)
	assert.Equal(t, "https://cdn.animeflv.net/screenshots/3921/15/th_3.jpg", first.Thumbnail)
	assert.Equal(t, "3921", first.SeriesID)
	assert.Equal(t, seriesLink, first.SeriesLink)
	require.NotNil(t, first.Comments)
	assert.Equal(t, len(first.Link), *first.Comments)
	require.NotNil(t, page.NextKey)
	assert.Equal(t, 1, *page.NextKey)

	src, ok := paged.Pager.(*chapters.Source)
	require.True(t, ok)
	assert.Equal(t, "https://www3.site.test/ver/sousou-no-frieren-", src.Context().ChapterLinkBase)
}

func TestBuildChapters_Movie(t *testing.T) {
	d := extract.FromDocument(loadFixture(t, "movie.html", ""))
	data := BuildChapters(d, DefaultLayout(), &stubBridge{}, nil)
	single, ok := data.(domain.SingleChapter)
	require.True(t, ok, "剧场版应为单章节，got %T", data)
	assert.Equal(t, "https://www3.site.test/ver/kimi-no-na-wa-1", single.Chapter.Link)
	assert.Equal(t, "https://cdn.animeflv.net/screenshots/2000/1/th_3.jpg", single.Chapter.Thumbnail)
	assert.InDelta(t, 1.0, single.Chapter.Number, 1e-9)
	assert.Nil(t, single.Chapter.Comments)
}

func TestBuildChapters_MovieFractionalIndex(t *testing.T) {
	html := `<html><head><link rel="canonical" href="https://x.test/anime/m"></head><body>
<span class="Type movie">Película</span>
<script>var episodes = [[1.5,1]];</script></body></html>`
	d := extract.FromDocument(parseHTML(t, html))
	single, ok := BuildChapters(d, DefaultLayout(), nil, nil).(domain.SingleChapter)
	require.True(t, ok)
	assert.Equal(t, "https://x.test/ver/m-1.5", single.Chapter.Link)
}

func TestBuildChapters_Absent(t *testing.T) {
	d := extract.FromDocument(loadFixture(t, "bare.html", ""))
	assert.Nil(t, BuildChapters(d, DefaultLayout(), &stubBridge{}, nil))
}

func TestAssembler_Chapters(t *testing.T) {
	bridge := &stubBridge{}
	a := &Assembler{Layout: DefaultLayout(), Bridge: bridge}
	paged, ok := a.Chapters(loadFixture(t, "series.html", "")).(domain.PagedChapters)
	require.True(t, ok)
	assert.Equal(t, 15, paged.Pager.Len())
	assert.Zero(t, bridge.probes.Load(), "构造章节来源不应触发探测")
	assert.Nil(t, a.Chapters(nil))
}

func TestFindRelated(t *testing.T) {
	d := extract.FromDocument(loadFixture(t, "series.html", seriesLink))
	links := FindRelated(d, DefaultLayout())
	require.Len(t, links, 3)
	assert.Equal(t, RelatedLink{Link: "https://www3.site.test/anime/sousou-no-frieren-2nd-season", Relation: "Secuela"}, links[0])
	assert.Equal(t, "Historia Paralela", links[1].Relation)
	assert.Equal(t, "https://www3.site.test/anime/broken-link", links[2].Link)
}

func TestFindRelated_Dedup(t *testing.T) {
	html := `<ul class="ListAnmRel">
<li><a href="https://x.test/anime/a">A</a> (Secuela)</li>
<li><a href="https://x.test/anime/a">A</a> (Precuela)</li>
<li>sin enlace</li>
</ul>`
	links := FindRelated(extract.FromDocument(parseHTML(t, html)), DefaultLayout())
	require.Len(t, links, 1, "重复链接只保留第一次出现")
	assert.Equal(t, "Secuela", links[0].Relation)
}

func TestRelationLabel(t *testing.T) {
	assert.Equal(t, "Secuela", relationLabel("  (Secuela) "))
	assert.Equal(t, "Secuela", relationLabel("Secuela"))
	assert.Equal(t, "", relationLabel(" () "))
	assert.Equal(t, "(x", relationLabel("(x"))
}

func TestResolveRelated_OrderAndDrops(t *testing.T) {
	links := []RelatedLink{
		{Link: "https://x.test/a", Relation: "Secuela"},
		{Link: "https://x.test/missing", Relation: "Precuela"},
		{Link: "https://x.test/b", Relation: "Historia Paralela"},
	}
	fetcher := &mapFetcher{recs: map[string]*domain.InfoRecord{
		"https://x.test/a": {Name: "A", Link: "https://x.test/canonical-a"},
		"https://x.test/b": {Name: "B"},
	}}

	got := ResolveRelated(context.Background(), links, fetcher, time.Second, nil)
	require.Len(t, got, 2, "失败的条目应被丢弃")
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "https://x.test/a", got[0].Link, "链接以文档中发现的为准")
	assert.Equal(t, "Secuela", got[0].Relation)
	assert.Equal(t, "B", got[1].Name)
	assert.Equal(t, "Historia Paralela", got[1].Relation)
	assert.Len(t, fetcher.calls, 3)
}

func TestResolveRelated_AllFail(t *testing.T) {
	fetcher := &mapFetcher{}
	got := ResolveRelated(context.Background(), []RelatedLink{{Link: "https://x.test/a"}}, fetcher, 0, nil)
	assert.Nil(t, got)
	assert.Nil(t, ResolveRelated(context.Background(), nil, fetcher, 0, nil))
}

type slowFetcher struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *slowFetcher) FetchRecord(ctx context.Context, link string) (*domain.InfoRecord, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
		return &domain.InfoRecord{Name: link}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResolveRelated_Concurrent(t *testing.T) {
	links := make([]RelatedLink, 6)
	for i := range links {
		links[i] = RelatedLink{Link: "https://x.test/" + string(rune('a'+i))}
	}
	f := &slowFetcher{delay: 150 * time.Millisecond}

	start := time.Now()
	got := ResolveRelated(context.Background(), links, f, time.Second, nil)
	elapsed := time.Since(start)

	require.Len(t, got, 6)
	for i, r := range got {
		assert.Equal(t, links[i].Link, r.Name, "结果应保持文档顺序")
	}
	assert.Less(t, elapsed, 600*time.Millisecond, "各条目应并发解析")
	assert.Greater(t, f.peak.Load(), int32(1))
}

func TestResolveRelated_PerCallTimeout(t *testing.T) {
	f := &slowFetcher{delay: time.Minute}
	start := time.Now()
	got := ResolveRelated(context.Background(), []RelatedLink{{Link: "https://x.test/a"}}, f, 30*time.Millisecond, nil)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAssemble_Series(t *testing.T) {
	fetcher := &mapFetcher{recs: map[string]*domain.InfoRecord{
		"https://www3.site.test/anime/sousou-no-frieren-2nd-season": {Name: "Sousou no Frieren 2nd Season"},
		"https://www3.site.test/anime/sousou-no-frieren-mini":       {Name: "Sousou no Frieren Mini"},
	}}
	enricher := &fakeEnricher{}
	a := &Assembler{
		Layout:         DefaultLayout(),
		Related:        fetcher,
		RelatedTimeout: time.Second,
		Enricher:       enricher,
		Bridge:         &stubBridge{},
	}

	rec, err := a.Assemble(context.Background(), loadFixture(t, "series.html", seriesLink))
	require.NoError(t, err)

	assert.Equal(t, 3921, rec.ID)
	assert.Equal(t, "Sousou no Frieren", rec.Name)
	assert.Equal(t, seriesLink, rec.Link)
	assert.Equal(t, domain.CategoryAnime, rec.Category)
	assert.Equal(t, "Anime", rec.Type)
	assert.Equal(t, "https://www3.site.test/uploads/animes/covers/3921.jpg", rec.Cover)
	assert.Contains(t, rec.Description, "La maga elfa Frieren")

	require.Len(t, rec.Genres, 3)
	assert.Equal(t, domain.Tag{Name: "Aventura", Payload: "aventura", ListEnabled: true}, rec.Genres[0])
	assert.Equal(t, "fantasia", rec.Genres[2].Payload)

	require.NotNil(t, rec.Ranking)
	assert.InDelta(t, 4.9, rec.Ranking.Stars, 1e-9)
	assert.Equal(t, 8421, rec.Ranking.Votes)

	assert.Equal(t, "airing(friday)", rec.State.String())

	require.Len(t, rec.Related, 2)
	assert.Equal(t, "Secuela", rec.Related[0].Relation)
	assert.Equal(t, "Historia Paralela", rec.Related[1].Relation)

	assert.Equal(t, "Sousou no Frieren", enricher.title)
	assert.Equal(t, []string{"葬送のフリーレン", "Frieren: Beyond Journey's End"}, enricher.altNames)
	require.Len(t, rec.Sections, 1)

	_, ok := rec.Chapters.(domain.PagedChapters)
	assert.True(t, ok)
}

func TestAssemble_MovieWithoutRanking(t *testing.T) {
	a := &Assembler{Layout: DefaultLayout()}
	rec, err := a.Assemble(context.Background(), loadFixture(t, "movie.html", ""))
	require.NoError(t, err)
	assert.Nil(t, rec.Ranking, "评分无法解析时整体缺失")
	assert.True(t, rec.State.Completed)
	assert.Nil(t, rec.Related)
	assert.Nil(t, rec.Sections)
	_, ok := rec.Chapters.(domain.SingleChapter)
	assert.True(t, ok)
}

func TestAssemble_Defaults(t *testing.T) {
	const link = "https://www3.site.test/anime/bare"
	a := &Assembler{Layout: DefaultLayout()}
	rec, err := a.Assemble(context.Background(), loadFixture(t, "bare.html", link))
	require.NoError(t, err)
	assert.Equal(t, DefaultName, rec.Name)
	assert.Equal(t, link, rec.Link, "没有 canonical 时使用文档 URL")
	assert.Equal(t, StableID("animeflv", link), rec.ID)
	assert.Nil(t, rec.Chapters)
	assert.Empty(t, rec.Genres)
}

func TestAssemble_NilDocument(t *testing.T) {
	a := &Assembler{Layout: DefaultLayout()}
	_, err := a.Assemble(context.Background(), nil)
	assert.Error(t, err)
	_, err = a.AssembleShallow(nil)
	assert.Error(t, err)
}

func TestAssemble_UnknownCategory(t *testing.T) {
	l := DefaultLayout()
	l.Category = ""
	a := &Assembler{Layout: l}
	rec, err := a.AssembleShallow(loadFixture(t, "movie.html", ""))
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryUnknown, rec.Category)
}

func TestStableID(t *testing.T) {
	a := StableID("animeflv", "https://x.test/a")
	assert.Equal(t, a, StableID("animeflv", "https://x.test/a"), "同输入同输出")
	assert.NotEqual(t, a, StableID("animeflv", "https://x.test/b"))
	assert.NotEqual(t, a, StableID("other", "https://x.test/a"))
	assert.GreaterOrEqual(t, a, 0)
}

type docMap map[string]string

func (m docMap) Fetch(_ context.Context, link string) (*goquery.Document, error) {
	html, ok := m[link]
	if !ok {
		return nil, errors.New("404")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(link)
	return doc, nil
}

func TestDocumentFetcher_Shallow(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "series.html"))
	require.NoError(t, err)
	bridge := &stubBridge{}
	a := &Assembler{Layout: DefaultLayout(), Bridge: bridge}
	enricher := &fakeEnricher{}
	a.Enricher = enricher
	f := DocumentFetcher{Docs: docMap{seriesLink: string(raw)}, Assembler: a}

	rec, err := f.FetchRecord(context.Background(), seriesLink)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Sousou no Frieren", rec.Name)
	assert.Nil(t, rec.Related, "关联条目不递归展开")
	assert.Nil(t, rec.Sections)
	assert.Nil(t, rec.Chapters)
	assert.Empty(t, enricher.title, "浅层组装不调用 enricher")

	_, err = f.FetchRecord(context.Background(), "https://x.test/missing")
	assert.Error(t, err)

	_, err = DocumentFetcher{}.FetchRecord(context.Background(), seriesLink)
	assert.Error(t, err)
}
