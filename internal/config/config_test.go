package config_test

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/babariviere/unibot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()

	assert.Equal(t, time.Second, cfg.SleepInterval())
	assert.Equal(t, 1, cfg.Jobs())
	assert.Equal(t, 200, cfg.TrapThreshold())
	assert.Empty(t, cfg.StoreTarget())

	// default predicate accepts everything
	assert.True(t, cfg.Accept(mustURL(t, "http://a.com/"), mustURL(t, "http://b.com/x")))
}

func TestDefaultOnCrawledIsNoop(t *testing.T) {
	cfg := config.WithDefault()

	assert.NotPanics(t, func() {
		cfg.OnCrawled(mustURL(t, "http://a.com/"), nil)
	})
}

func TestSiteOnly(t *testing.T) {
	cfg := config.SiteOnly()

	base := mustURL(t, "http://a.com/page")
	assert.True(t, cfg.Accept(base, mustURL(t, "http://a.com/other")))
	assert.False(t, cfg.Accept(base, mustURL(t, "http://b.com/x")))
}

func TestBuilderChaining(t *testing.T) {
	cfg := config.WithDefault().
		WithAccept(func(base, candidate *url.URL) bool { return false }).
		WithOnCrawled(func(u *url.URL, doc *goquery.Document) {}).
		WithSleepInterval(50 * time.Millisecond).
		WithJobs(4).
		WithTrapThreshold(300).
		WithStoreTarget("out")

	assert.Equal(t, 50*time.Millisecond, cfg.SleepInterval())
	assert.Equal(t, 4, cfg.Jobs())
	assert.Equal(t, 300, cfg.TrapThreshold())
	assert.Equal(t, "out", cfg.StoreTarget())
	assert.False(t, cfg.Accept(mustURL(t, "http://a.com/"), mustURL(t, "http://a.com/x")))
}

func TestConfigIsCloneCheap(t *testing.T) {
	shared := 0
	cfg := config.WithDefault().WithAccept(func(base, candidate *url.URL) bool {
		shared++
		return true
	})

	clone := *cfg
	clone.Accept(mustURL(t, "http://a.com/"), mustURL(t, "http://a.com/x"))
	cfg.Accept(mustURL(t, "http://a.com/"), mustURL(t, "http://a.com/x"))

	assert.Equal(t, 2, shared, "clones share the predicate")
}

func TestWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"siteOnly": true,
		"jobs": 8,
		"sleepInterval": 250000000,
		"trapThreshold": 150,
		"userAgent": "unibot-test/0.1",
		"storeTarget": "bolt:crawl.db:pages"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.WithConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Jobs())
	assert.Equal(t, 250*time.Millisecond, cfg.SleepInterval())
	assert.Equal(t, 150, cfg.TrapThreshold())
	assert.Equal(t, "unibot-test/0.1", cfg.UserAgent())
	assert.Equal(t, "bolt:crawl.db:pages", cfg.StoreTarget())
	assert.False(t, cfg.Accept(mustURL(t, "http://a.com/"), mustURL(t, "http://b.com/")))
}

func TestWithConfigFileMissing(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "nope.json"))

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrFileDoesNotExist)
}

func TestWithConfigFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := config.WithConfigFile(path)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigParsingFail)
}
