package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBDriver    string `long:"db-driver" env:"DB_DRIVER" default:"sqlite" choice:"sqlite" choice:"postgres" description:"Database driver"`
	DatabaseURL string `long:"database-url" env:"DATABASE_URL" default:"./data/content.db" description:"Database DSN (sqlite file path or postgres URL)"`

	// Run modes
	InitDB     bool   `long:"init-db" description:"Create the database schema and seed categories"`
	Collect    bool   `long:"collect" description:"Run one collection and exit"`
	Serve      bool   `long:"serve" description:"Run the HTTP API and background scheduler"`
	DaysAgo    int    `long:"days-ago" env:"DAYS_AGO" default:"7" description:"Collect items published within this many days"`
	MaxResults int    `long:"max-results" env:"MAX_RESULTS" default:"100" description:"Maximum items per feed or query"`
	SaveJSON   bool   `long:"save-json" description:"Write the collected batch to a JSON file"`
	SaveDB     bool   `long:"save-db" description:"Persist the collected batch to the database"`
	OutputFile string `long:"output-file" description:"Path for the JSON dump (defaults to a timestamped file in data-dir)"`
	DataDir    string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for JSON dumps"`

	// Feeds
	FeedsDir string  `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	FeedRate float64 `long:"feed-rate" env:"FEED_RATE" default:"1" description:"Feed fetches per second"`

	// Social platforms
	TwitterBearerToken  string   `long:"twitter-bearer-token" env:"TWITTER_BEARER_TOKEN" description:"Twitter API v2 bearer token"`
	TwitterAPIURL       string   `long:"twitter-api-url" env:"TWITTER_API_URL" default:"https://api.twitter.com/2" description:"Twitter API base URL"`
	TwitterHashtags     []string `long:"twitter-hashtag" env:"TWITTER_HASHTAGS" env-delim:"," default:"#artificialintelligence" description:"Hashtag to search (repeatable)"`
	TwitterAccounts     []string `long:"twitter-account" env:"TWITTER_ACCOUNTS" env-delim:"," default:"OpenAI" description:"Account timeline to collect (repeatable)"`
	LinkedInAPIKey      string   `long:"linkedin-api-key" env:"LINKEDIN_API_KEY" description:"API key for the LinkedIn search service"`
	LinkedInAPIURL      string   `long:"linkedin-api-url" env:"LINKEDIN_API_URL" default:"https://api.lix-it.com/v1/li/linkedin/search/posts" description:"LinkedIn search service URL"`
	LinkedInCompanies   []string `long:"linkedin-company" env:"LINKEDIN_COMPANIES" env-delim:"," default:"openai" default:"anthropic" default:"google ai" default:"meta ai" default:"deepmind" default:"stability ai" default:"midjourney" default:"microsoft ai" description:"Company to search (repeatable)"`
	LinkedInInfluencers []string `long:"linkedin-influencer" env:"LINKEDIN_INFLUENCERS" env-delim:"," default:"andrew ng" default:"yann lecun" default:"geoffrey hinton" default:"fei-fei li" default:"demis hassabis" default:"sam altman" default:"dario amodei" description:"Person to search (repeatable)"`
	LinkedInKeywords    []string `long:"linkedin-keyword" env:"LINKEDIN_KEYWORDS" env-delim:"," default:"artificial intelligence" default:"machine learning" default:"deep learning" default:"neural network" default:"llm" default:"large language model" default:"gpt" default:"generative ai" description:"Keyword to search (repeatable)"`
	NoSimulate          bool     `long:"no-simulate" env:"NO_SIMULATE" description:"Disable simulated social data when credentials are missing"`
	RequestRate         float64  `long:"request-rate" env:"REQUEST_RATE" default:"1" description:"Social API requests per second"`

	// Summarization
	NoSummarize            bool          `long:"no-summarize" env:"NO_SUMMARIZE" description:"Disable LLM summaries of feed entries"`
	SummarizationAPIKey    string        `long:"summarization-api-key" env:"OPENAI_API_KEY" description:"API key for the chat completion provider"`
	SummarizationAPIURL    string        `long:"summarization-api-url" env:"SUMMARIZATION_API_URL" default:"https://api.openai.com/v1/chat/completions" description:"Chat completion endpoint"`
	SummarizationModel     string        `long:"summarization-model" env:"SUMMARIZATION_MODEL" default:"gpt-3.5-turbo" description:"Chat completion model"`
	SummarizationMaxTokens int           `long:"summarization-max-tokens" env:"SUMMARIZATION_MAX_TOKENS" default:"150" description:"Maximum tokens per summary"`
	SummarizationTimeout   time.Duration `long:"summarization-timeout" env:"SUMMARIZATION_TIMEOUT" default:"30s" description:"Timeout per summarization call"`
	SummarizationRate      float64       `long:"summarization-rate" env:"SUMMARIZATION_RATE" default:"1" description:"Summarization calls per second"`
	RedisAddr              string        `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the summary cache (optional)"`
	SummaryCacheTTL        time.Duration `long:"summary-cache-ttl" env:"SUMMARY_CACHE_TTL" default:"168h" description:"How long cached summaries are kept"`

	// Server
	Port              string        `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseURL           string        `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://comb.example.com)"`
	APIAccessKey      string        `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`
	WorkerCount       int           `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval time.Duration `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"1h" description:"Interval between scheduled collections"`
	CollectOnStart    bool          `long:"collect-on-start" env:"COLLECT_ON_START" description:"Run a collection as soon as the server starts"`
	CollectorTimeout  time.Duration `long:"collector-timeout" env:"COLLECTOR_TIMEOUT" default:"5m" description:"Timeout for each collector in a run"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Content Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses args and the environment. It returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.HelpFlag|flags.PassDoubleDash)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.DaysAgo < 1 {
		return nil, fmt.Errorf("days-ago must be at least 1, got %d", raw.DaysAgo)
	}
	if raw.MaxResults < 1 {
		return nil, fmt.Errorf("max-results must be at least 1, got %d", raw.MaxResults)
	}

	cfg := &Cfg{
		DBDriver:               raw.DBDriver,
		DatabaseURL:            raw.DatabaseURL,
		InitDB:                 raw.InitDB,
		Collect:                raw.Collect,
		Serve:                  raw.Serve,
		DaysAgo:                raw.DaysAgo,
		MaxResults:             raw.MaxResults,
		SaveJSON:               raw.SaveJSON,
		SaveDB:                 raw.SaveDB,
		OutputFile:             raw.OutputFile,
		DataDir:                raw.DataDir,
		FeedsDir:               raw.FeedsDir,
		FeedRate:               raw.FeedRate,
		TwitterBearerToken:     raw.TwitterBearerToken,
		TwitterAPIURL:          raw.TwitterAPIURL,
		TwitterHashtags:        raw.TwitterHashtags,
		TwitterAccounts:        raw.TwitterAccounts,
		LinkedInAPIKey:         raw.LinkedInAPIKey,
		LinkedInAPIURL:         raw.LinkedInAPIURL,
		LinkedInCompanies:      raw.LinkedInCompanies,
		LinkedInInfluencers:    raw.LinkedInInfluencers,
		LinkedInKeywords:       raw.LinkedInKeywords,
		Simulate:               !raw.NoSimulate,
		RequestRate:            raw.RequestRate,
		Summarize:              !raw.NoSummarize,
		SummarizationAPIKey:    raw.SummarizationAPIKey,
		SummarizationAPIURL:    raw.SummarizationAPIURL,
		SummarizationModel:     raw.SummarizationModel,
		SummarizationMaxTokens: raw.SummarizationMaxTokens,
		SummarizationTimeout:   raw.SummarizationTimeout,
		SummarizationRate:      raw.SummarizationRate,
		RedisAddr:              raw.RedisAddr,
		SummaryCacheTTL:        raw.SummaryCacheTTL,
		Port:                   raw.Port,
		BaseURL:                raw.BaseURL,
		APIAccessKey:           raw.APIAccessKey,
		WorkerCount:            raw.WorkerCount,
		SchedulerInterval:      raw.SchedulerInterval,
		CollectOnStart:         raw.CollectOnStart,
		CollectorTimeout:       raw.CollectorTimeout,
		UserAgent:              raw.UserAgent,
		Timezone:               raw.Timezone,
		Debug:                  raw.Debug,
		Version:                GetVersion(),
	}

	// A one-shot collection with no destination saves everywhere.
	if cfg.Collect && !cfg.SaveJSON && !cfg.SaveDB {
		cfg.SaveJSON = true
		cfg.SaveDB = true
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc

	return nil
}
