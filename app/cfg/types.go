package cfg

type Cfg struct {
	// Persisted store (PostgREST) configuration
	StoreURL string
	StoreKey string

	// Application configuration
	Port     string
	RunToken string

	// Per-run ceilings, sized against the hosting platform's outbound
	// request budget
	MaxFeedSources  int
	MaxSiteSources  int
	MaxResolveBatch int

	// Job intervals in seconds
	FeedInterval    int
	SiteInterval    int
	ResolveInterval int
	ZooInterval     int

	WorkerCount int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
