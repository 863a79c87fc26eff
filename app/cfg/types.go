package cfg

import (
	"time"
)

type Cfg struct {
	// Database configuration
	DBDriver    string
	DatabaseURL string

	// Run modes
	InitDB     bool
	Collect    bool
	Serve      bool
	DaysAgo    int
	MaxResults int
	SaveJSON   bool
	SaveDB     bool
	OutputFile string
	DataDir    string

	// Feeds
	FeedsDir string
	FeedRate float64 // requests per second across feeds

	// Social platforms
	TwitterBearerToken  string
	TwitterAPIURL       string
	TwitterHashtags     []string
	TwitterAccounts     []string
	LinkedInAPIKey      string
	LinkedInAPIURL      string
	LinkedInCompanies   []string
	LinkedInInfluencers []string
	LinkedInKeywords    []string
	Simulate            bool
	RequestRate         float64

	// Summarization
	Summarize              bool
	SummarizationAPIKey    string
	SummarizationAPIURL    string
	SummarizationModel     string
	SummarizationMaxTokens int
	SummarizationTimeout   time.Duration
	SummarizationRate      float64
	RedisAddr              string
	SummaryCacheTTL        time.Duration

	// Server
	Port              string
	BaseURL           string
	APIAccessKey      string
	WorkerCount       int
	SchedulerInterval time.Duration
	CollectOnStart    bool
	CollectorTimeout  time.Duration

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
