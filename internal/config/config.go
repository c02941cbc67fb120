package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// AcceptFunc decides whether a candidate URL discovered on base enters the
// frontier. Both callables are shared references; Config values are cloned
// freely across workers.
type AcceptFunc func(base *url.URL, candidate *url.URL) bool

// OnCrawledFunc is invoked after a page is fetched and indexed, before its
// links are expanded.
type OnCrawledFunc func(u *url.URL, doc *goquery.Document)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Predicate applied to every discovered link before enqueueing.
	accept AcceptFunc
	// Side-effectful callback per visited page.
	onCrawled OnCrawledFunc

	//===============
	// Politeness
	//===============
	// Fixed waiting time after each fetch iteration.
	sleepInterval time.Duration
	// Number of concurrent fetch workers.
	jobs int

	//===============
	// Limits
	//===============
	// URL string length above which a same-host URL flags a spider trap.
	trapThreshold int
	// Maximum attempts for a single fetch.
	maxAttempt int
	// Initial delay for fetch retry backoff.
	backoffInitialDuration time.Duration
	// Multiplier during exponential backoff.
	backoffMultiplier float64
	// Capped maximum backoff delay.
	backoffMaxDuration time.Duration
	// Randomized variation added on top of backoff delays.
	jitter time.Duration
	// Controls the random number generator.
	randomSeed int64

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request.
	timeout time.Duration
	// User agent sent in the request header.
	userAgent string

	//===============
	// Output
	//===============
	// Storage target for fetched bodies. Empty means bodies are not stored.
	// Formats: "<dir>", "dir:<dir>", "bolt:<file>:<bucket>".
	storeTarget string
}

type configDTO struct {
	SiteOnly               bool          `json:"siteOnly,omitempty"`
	Jobs                   int           `json:"jobs,omitempty"`
	SleepInterval          time.Duration `json:"sleepInterval,omitempty"`
	TrapThreshold          int           `json:"trapThreshold,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	StoreTarget            string        `json:"storeTarget,omitempty"`
}

func newConfigFromDTO(dto configDTO) Config {
	cfg := *WithDefault()

	if dto.SiteOnly {
		cfg.accept = sameHostAccept
	}
	if dto.Jobs > 0 {
		cfg.jobs = dto.Jobs
	}
	if dto.SleepInterval != 0 {
		cfg.sleepInterval = dto.SleepInterval
	}
	if dto.TrapThreshold != 0 {
		cfg.trapThreshold = dto.TrapThreshold
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.StoreTarget != "" {
		cfg.storeTarget = dto.StoreTarget
	}

	return cfg
}

// WithConfigFile loads a Config from a JSON file, applying defaults for
// absent fields.
func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}

	var cfgDTO configDTO
	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO), nil
}

// WithDefault creates a new Config with default values for all fields:
// every candidate is accepted, nothing is stored, and workers pause one
// second between fetches.
func WithDefault() *Config {
	defaultConfig := Config{
		accept:                 func(base, candidate *url.URL) bool { return true },
		onCrawled:              func(u *url.URL, doc *goquery.Document) {},
		sleepInterval:          time.Second,
		jobs:                   1,
		trapThreshold:          200,
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		jitter:                 500 * time.Millisecond,
		randomSeed:             time.Now().UnixNano(),
		timeout:                10 * time.Second,
		userAgent:              "unibot/1.0",
	}
	return &defaultConfig
}

// SiteOnly creates a Config whose accept predicate keeps the crawl on the
// host of the page each link was found on.
func SiteOnly() *Config {
	return WithDefault().WithAccept(sameHostAccept)
}

func sameHostAccept(base, candidate *url.URL) bool {
	return base.Host == candidate.Host
}

func (c *Config) WithAccept(accept AcceptFunc) *Config {
	c.accept = accept
	return c
}

func (c *Config) WithOnCrawled(onCrawled OnCrawledFunc) *Config {
	c.onCrawled = onCrawled
	return c
}

func (c *Config) WithSleepInterval(d time.Duration) *Config {
	c.sleepInterval = d
	return c
}

func (c *Config) WithJobs(jobs int) *Config {
	c.jobs = jobs
	return c
}

func (c *Config) WithTrapThreshold(threshold int) *Config {
	c.trapThreshold = threshold
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithStoreTarget(target string) *Config {
	c.storeTarget = target
	return c
}

// Accept applies the acceptance predicate.
func (c *Config) Accept(base, candidate *url.URL) bool {
	return c.accept(base, candidate)
}

// OnCrawled invokes the per-page callback.
func (c *Config) OnCrawled(u *url.URL, doc *goquery.Document) {
	c.onCrawled(u, doc)
}

func (c *Config) SleepInterval() time.Duration {
	return c.sleepInterval
}

func (c *Config) Jobs() int {
	return c.jobs
}

func (c *Config) TrapThreshold() int {
	return c.trapThreshold
}

func (c *Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c *Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c *Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c *Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c *Config) Jitter() time.Duration {
	return c.jitter
}

func (c *Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c *Config) Timeout() time.Duration {
	return c.timeout
}

func (c *Config) UserAgent() string {
	return c.userAgent
}

func (c *Config) StoreTarget() string {
	return c.storeTarget
}
