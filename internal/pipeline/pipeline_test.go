package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmigrate/internal/blocks"
	"git.home.luguber.info/inful/docmigrate/internal/config"
	"git.home.luguber.info/inful/docmigrate/internal/doctree"
	"git.home.luguber.info/inful/docmigrate/internal/feishu"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/notify"
	"git.home.luguber.info/inful/docmigrate/internal/report"
	"git.home.luguber.info/inful/docmigrate/internal/site"
	"git.home.luguber.info/inful/docmigrate/internal/transcache"
	"git.home.luguber.info/inful/docmigrate/internal/translate"
)

var en = config.Language{Code: "en", LocaleDir: "en", APICode: "en"}

func blk(id string, typ blocks.Type, parent, text string) blocks.Block {
	b := blocks.Block{ID: id, Type: typ, ParentID: parent}
	if text != "" {
		b.Runs = []blocks.Run{{Text: text}}
	}
	return b
}

func sampleBlocks(secondStem string) []blocks.Block {
	return []blocks.Block{
		blk("root", blocks.TypeRoot, "", "Doc"),
		blk("h1", blocks.TypeHeading1, "root", "Stems"),
		blk("a", blocks.TypeHeading2, "root", "Alpha"),
		blk("a1", blocks.TypeParagraph, "root", "first stem"),
		blk("b", blocks.TypeHeading2, "root", "Beta"),
		blk("b1", blocks.TypeParagraph, "root", secondStem),
	}
}

type fakeSource struct {
	list  []blocks.Block
	err   error
	calls int
}

func (f *fakeSource) FetchDocument(_ context.Context, id string) (*feishu.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &feishu.Document{ID: id, Blocks: f.list, Raw: []byte(`{"items":[]}`)}, nil
}

// upper translates by upper-casing and counts calls.
type upper struct {
	mu    sync.Mutex
	calls int
	fail  string
}

func (u *upper) Translate(_ context.Context, text string, _ config.Language) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.fail != "" && strings.Contains(text, u.fail) {
		return text, foundationerrors.TranslationError("backend down").Warning().Build()
	}
	return strings.ToUpper(text), nil
}

type mapIndex struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapIndex() *mapIndex { return &mapIndex{m: map[string]string{}} }

func (x *mapIndex) FileFingerprint(_ context.Context, lang, path string) (string, bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	v, ok := x.m[lang+"|"+path]
	return v, ok, nil
}

func (x *mapIndex) SetFileFingerprint(_ context.Context, lang, path, fp string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.m[lang+"|"+path] = fp
	return nil
}

type fakeNotifier struct {
	events []notify.RunEvent
	err    error
}

func (f *fakeNotifier) Notify(_ context.Context, e notify.RunEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeRunLog struct{ runs []transcache.Run }

func (f *fakeRunLog) RecordRun(_ context.Context, r transcache.Run) error {
	f.runs = append(f.runs, r)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Site: config.SiteConfig{Root: root, WorkDir: filepath.Join(root, ".work")},
		Translation: config.TranslationConfig{
			Provider:  config.ProviderNone,
			Languages: []config.Language{en},
		},
	}
	require.NoError(t, config.ApplyDefaults(cfg))
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(cfg *config.Config, src Source, opts ...Option) *Runner {
	n := 0
	base := []Option{
		WithLogger(quietLogger()),
		WithRunID(func() string { n++; return "run-" + string(rune('0'+n)) }),
	}
	return New(cfg, src, append(base, opts...)...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesSourceAndTranslations(t *testing.T) {
	cfg := testConfig(t)
	tr := &upper{}
	runs := &fakeRunLog{}
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}, WithTranslator(tr), WithRunLog(runs))

	rep, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, 1, rep.Sections)
	assert.Equal(t, 2, rep.Entries)

	docs := r.Layout().DocsPath()
	alpha := readFile(t, filepath.Join(docs, "Stems", "Alpha.md"))
	assert.Contains(t, alpha, "sidebar_position: 1")
	assert.Contains(t, alpha, "# Alpha\n\nfirst stem\n")
	c, err := site.ReadCategory(filepath.Join(docs, "Stems"))
	require.NoError(t, err)
	assert.Equal(t, "Stems", c.Label)
	assert.Equal(t, 2, c.Position)

	locale := r.Layout().LocalePath(en)
	translated := readFile(t, filepath.Join(locale, "Stems", "Alpha.md"))
	assert.Contains(t, translated, "sidebar_position: 1")
	assert.Contains(t, translated, "# ALPHA\n\nFIRST STEM\n")
	lc, err := site.ReadCategory(filepath.Join(locale, "Stems"))
	require.NoError(t, err)
	assert.Equal(t, "STEMS", lc.Label)
	assert.Equal(t, 2, lc.Position)

	src := rep.Languages[cfg.Translation.SourceLanguage.Code]
	require.NotNil(t, src)
	assert.Equal(t, 2, src.FilesWritten)
	assert.Equal(t, 2, rep.Languages["en"].FilesWritten)
	assert.Positive(t, rep.Languages["en"].Segments)

	for _, name := range []string{RawPayloadFile, StructureFile, report.JSONFile, report.TextFile} {
		assert.FileExists(t, filepath.Join(cfg.Site.WorkDir, name))
	}
	require.Len(t, runs.runs, 1)
	assert.Equal(t, "run-1", runs.runs[0].ID)
	assert.Equal(t, string(report.OutcomeSuccess), runs.runs[0].Status)
}

func TestRunSkipsExistingUnlessForced(t *testing.T) {
	cfg := testConfig(t)
	tr := &upper{}
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}, WithTranslator(tr))

	_, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)
	first := tr.calls

	rep, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Languages["en"].FilesSkipped)
	assert.Equal(t, 0, rep.Languages["en"].FilesWritten)
	// only the category label is translated again
	assert.Equal(t, first+1, tr.calls)

	rep, err = r.Run(context.Background(), Options{Translate: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Languages["en"].FilesWritten)
}

func TestRunRetranslatesChangedSource(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeSource{list: sampleBlocks("second stem")}
	r := newRunner(cfg, src, WithTranslator(&upper{}), WithFileIndex(newMapIndex()))

	_, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)

	src.list = sampleBlocks("second stem revised")
	rep, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)
	stats := rep.Languages["en"]
	assert.Equal(t, 1, stats.FilesWritten)
	assert.Equal(t, 1, stats.FilesSkipped)

	beta := readFile(t, filepath.Join(r.Layout().LocalePath(en), "Stems", "Beta.md"))
	assert.Contains(t, beta, "SECOND STEM REVISED")
}

func TestRunFailurePolicy(t *testing.T) {
	for _, tc := range []struct {
		policy  config.FailurePolicy
		written bool
	}{
		{config.FailurePolicySkip, false},
		{config.FailurePolicyPartial, true},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Translation.FailurePolicy = tc.policy
			r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}, WithTranslator(&upper{fail: "second"}))

			rep, err := r.Run(context.Background(), Options{Translate: true})
			require.NoError(t, err)
			assert.Equal(t, report.OutcomeWarning, rep.Outcome)

			stats := rep.Languages["en"]
			assert.Equal(t, 1, stats.FilesFailed)
			assert.Equal(t, 1, stats.FilesWritten)
			assert.Equal(t, 1, stats.SegmentFailures)

			beta := filepath.Join(r.Layout().LocalePath(en), "Stems", "Beta.md")
			if tc.written {
				content := readFile(t, beta)
				assert.Contains(t, content, "# BETA")
				assert.Contains(t, content, "second stem")
			} else {
				assert.NoFileExists(t, beta)
			}
			require.NotEmpty(t, rep.Issues)
			assert.Equal(t, report.IssueTranslationFailure, rep.Issues[0].Code)
			assert.Equal(t, filepath.Join("Stems", "Beta.md"), rep.Issues[0].File)
		})
	}
}

func TestRunStructureErrorWritesDegradedDump(t *testing.T) {
	cfg := testConfig(t)
	list := []blocks.Block{
		blk("h1", blocks.TypeHeading1, "missing", "Stems"),
		blk("p", blocks.TypeParagraph, "missing", "orphan text"),
	}
	r := newRunner(cfg, &fakeSource{list: list})

	rep, err := r.Run(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, doctree.IsStructureError(err))
	assert.Equal(t, report.OutcomeFailed, rep.Outcome)

	dump := readFile(t, filepath.Join(cfg.Site.WorkDir, DegradedDumpFile))
	assert.Contains(t, dump, "orphan text")
	assert.NoDirExists(t, r.Layout().DocsPath())
}

func TestRunDumpOnly(t *testing.T) {
	cfg := testConfig(t)
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")})

	rep, err := r.Run(context.Background(), Options{DumpOnly: true})
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeSuccess, rep.Outcome)
	assert.Equal(t, `{"items":[]}`, readFile(t, filepath.Join(cfg.Site.WorkDir, RawPayloadFile)))
	assert.NoFileExists(t, filepath.Join(cfg.Site.WorkDir, StructureFile))
	assert.NoDirExists(t, r.Layout().DocsPath())
}

func TestRunFromDocs(t *testing.T) {
	cfg := testConfig(t)
	_, err := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}).Run(context.Background(), Options{})
	require.NoError(t, err)

	offline := &fakeSource{err: errors.New("must not be called")}
	r := newRunner(cfg, offline, WithTranslator(&upper{}))
	rep, err := r.Run(context.Background(), Options{Translate: true, FromDocs: true})
	require.NoError(t, err)
	assert.Zero(t, offline.calls)
	assert.Equal(t, 2, rep.Languages["en"].FilesWritten)

	alpha := readFile(t, filepath.Join(r.Layout().LocalePath(en), "Stems", "Alpha.md"))
	assert.Contains(t, alpha, "# ALPHA\n\nFIRST STEM\n")
}

func TestRunFetchFailure(t *testing.T) {
	cfg := testConfig(t)
	boom := foundationerrors.AuthError("bad credentials").Build()
	r := newRunner(cfg, &fakeSource{err: boom})

	rep, err := r.Run(context.Background(), Options{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, report.OutcomeFailed, rep.Outcome)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, report.IssueFetchFailure, rep.Issues[0].Code)
}

func TestRunCanceledBetweenFiles(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")})

	rep, err := r.Run(ctx, Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, report.OutcomeCanceled, rep.Outcome)
	assert.FileExists(t, filepath.Join(cfg.Site.WorkDir, report.JSONFile))
}

func TestRunTranslateWithoutTranslator(t *testing.T) {
	cfg := testConfig(t)
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")})

	_, err := r.Run(context.Background(), Options{Translate: true})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestRunPublishesAndNotifies(t *testing.T) {
	cfg := testConfig(t)
	n := &fakeNotifier{}
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}, WithNotifier(n))

	rep, err := r.Run(context.Background(), Options{
		Publish: func(context.Context) (string, error) { return "abc123", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", rep.Commit)
	require.Len(t, n.events, 1)
	assert.Equal(t, "abc123", n.events[0].Commit)
	assert.Equal(t, report.OutcomeSuccess, n.events[0].Outcome)
	assert.Equal(t, 2, n.events[0].Totals.FilesWritten)
}

func TestRunPublishFailureFailsRun(t *testing.T) {
	cfg := testConfig(t)
	boom := foundationerrors.GitError("push rejected").Build()
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")})

	rep, err := r.Run(context.Background(), Options{
		Publish: func(context.Context) (string, error) { return "", boom },
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, report.OutcomeFailed, rep.Outcome)
}

func TestRunNotifyFailureIsWarning(t *testing.T) {
	cfg := testConfig(t)
	n := &fakeNotifier{err: errors.New("no servers")}
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")}, WithNotifier(n))

	rep, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, report.OutcomeWarning, rep.Outcome)
	assert.Equal(t, report.IssueNotifyFailure, rep.Issues[len(rep.Issues)-1].Code)
}

func TestRunReportsCacheStats(t *testing.T) {
	cfg := testConfig(t)
	memory, err := transcache.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })
	tr := translate.NewCached(&upper{}, memory, quietLogger())
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("first stem")}, WithTranslator(tr))

	rep, err := r.Run(context.Background(), Options{Translate: true})
	require.NoError(t, err)
	// "first stem" appears on both pages
	assert.Positive(t, rep.CacheHits)
	assert.Positive(t, rep.CacheMisses)
}

func TestStructureRoundTrip(t *testing.T) {
	s, err := doctree.Extract(sampleBlocks("second stem"))
	require.NoError(t, err)

	data, err := EncodeStructure(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"Stems\": {")

	back, err := LoadStructure(data, config.DefaultIntroSuffix)
	require.NoError(t, err)
	assert.Equal(t, s.String(), back.String())

	_, err = LoadStructure([]byte(`[1]`), config.DefaultIntroSuffix)
	require.Error(t, err)
}

func TestRunBacksUpSidebar(t *testing.T) {
	cfg := testConfig(t)
	r := newRunner(cfg, &fakeSource{list: sampleBlocks("second stem")})
	sidebar := r.Layout().SidebarPath()
	require.NoError(t, os.WriteFile(sidebar, []byte("export default {};\n"), 0o600))

	_, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "export default {};\n", readFile(t, sidebar+".bak"))
}
