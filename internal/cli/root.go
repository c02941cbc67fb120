package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/babariviere/unibot/internal/build"
	"github.com/babariviere/unibot/internal/config"
	"github.com/babariviere/unibot/internal/crawler"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	siteOnly      bool
	jobs          string
	storeTarget   string
	sleepInterval time.Duration
	trapThreshold int
	userAgent     string
)

// parseSeedURLs converts the positional arguments to absolute URLs.
func parseSeedURLs(args []string) ([]*url.URL, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one SITE is required")
	}

	var seeds []*url.URL
	for _, arg := range args {
		u, err := url.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("error parsing seed URL %s: %w", arg, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("seed URL %s must use http or https", arg)
		}
		seeds = append(seeds, u)
	}
	return seeds, nil
}

// parseJobs reads the worker count, falling back to one worker when the
// value does not parse or is not positive.
func parseJobs(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "unibot [flags] SITE [SITE...]",
	Short:   "A multi-worker web crawler.",
	Version: build.FullVersion(),
	Long: `unibot crawls the web from one or more seed URLs: it fetches pages,
extracts their hyperlinks and follows every link the acceptance
predicate admits, until the frontier is exhausted.

Visited URLs are printed as they are crawled. Fetched bodies can
optionally be persisted to a directory or a bolt database.`,
	Run: func(cmd *cobra.Command, args []string) {
		seeds, err := parseSeedURLs(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			cmd.Usage()
			os.Exit(1)
		}

		cfg := InitConfig()

		if err := runCrawl(cfg, seeds, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	},
}

// runCrawl seeds a coordinator, launches the workers and streams every
// visited URL to out until all workers have terminated.
func runCrawl(cfg config.Config, seeds []*url.URL, out *os.File) error {
	coordinator := crawler.NewWithTrapThreshold(cfg.TrapThreshold())
	coordinator.CreateWorkers(cfg.Jobs())

	for _, seed := range seeds {
		coordinator.Enqueue(seed)
	}
	if len(coordinator.FrontierSnapshot()) == 0 {
		return fmt.Errorf("no seed URL could be enqueued")
	}

	channels := coordinator.Start(context.Background(), cfg)

	// Fan the per-worker channels into one stream so output stays
	// ordered within each worker and uninterleaved across lines.
	merged := make(chan *url.URL, len(channels))
	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch <-chan *url.URL) {
			defer wg.Done()
			for u := range ch {
				merged <- u
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for u := range merged {
		fmt.Fprintf(out, "Visited %s\n", u)
	}

	coordinator.Finish(0)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&siteOnly, "site-only", "s", false, "only follow links on the host they were found on")
	rootCmd.PersistentFlags().StringVarP(&jobs, "jobs", "j", "1", "number of concurrent fetch workers")
	rootCmd.PersistentFlags().StringVar(&storeTarget, "store", "", "storage target for fetched bodies (\"<dir>\" or \"bolt:<file>:<bucket>\")")
	rootCmd.PersistentFlags().DurationVar(&sleepInterval, "sleep", time.Second, "pause between fetches on each worker")
	rootCmd.PersistentFlags().IntVar(&trapThreshold, "trap-threshold", 0, "URL length above which a site is flagged as a spider trap (0 for default)")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
}

// InitConfig assembles the crawl config from the config file and flags.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError assembles the crawl config, returning any errors.
// This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	var cfg config.Config
	if cfgFile != "" {
		fileCfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		cfg = fileCfg
	} else {
		cfg = *config.WithDefault()
	}

	// Flags override file values where provided.
	if siteOnly {
		cfg = *cfg.WithAccept(func(base, candidate *url.URL) bool {
			return base.Host == candidate.Host
		})
	}
	if jobs != "1" {
		cfg = *cfg.WithJobs(parseJobs(jobs))
	}
	if sleepInterval != time.Second {
		cfg = *cfg.WithSleepInterval(sleepInterval)
	}
	if storeTarget != "" {
		cfg = *cfg.WithStoreTarget(storeTarget)
	}
	if trapThreshold > 0 {
		cfg = *cfg.WithTrapThreshold(trapThreshold)
	}
	if userAgent != "" {
		cfg = *cfg.WithUserAgent(userAgent)
	}

	return cfg, nil
}
