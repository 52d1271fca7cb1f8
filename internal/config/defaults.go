package config

// Default returns the built-in configuration: every Zama source enabled
// except the twitter mirror scrape, polling every five minutes.
//
// Parse decodes the config file over a Default() copy, so omitted fields
// keep these values while explicit ones (including explicit false)
// override them.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "INFO",
			Console: true,
		},
		Poll: PollConfig{
			Interval:            "5m",
			StartupAnnouncement: boolPtr(true),
		},
		Dispatch: DispatchConfig{
			MessageInterval: "2s",
			RetryMax:        3,
			RetryBase:       "500ms",
			RetryMaxDelay:   "10s",
		},
		Storage: StorageConfig{
			Path:        "./data/zama-news.db",
			BusyTimeout: "5s",
			Retention:   "2160h", // 90 days
		},
		Sources: SourcesConfig{
			Blog: BlogSource{
				Enabled: boolPtr(true),
				FeedURL: "https://www.zama.ai/rss.xml",
				PageURL: "https://www.zama.ai/blog",
			},
			GitHub: GitHubSource{
				Enabled: boolPtr(true),
				Repos: []string{
					"zama-ai/fhevm",
					"zama-ai/tfhe-rs",
					"zama-ai/concrete-ml",
					"zama-ai/concrete",
				},
				Releases:  boolPtr(true),
				MergedPRs: boolPtr(true),
			},
			Changelog: ChangelogSource{
				Enabled: boolPtr(true),
				URL:     "https://docs.zama.ai/change-log",
			},
			Litepaper: LitepaperSource{
				Enabled: boolPtr(true),
				URL:     "https://docs.zama.ai/protocol/zama-protocol-litepaper",
			},
			Status: StatusSource{
				Enabled: boolPtr(true),
				FeedURL: "https://status.zama.ai/feed.rss",
				AtomURL: "https://status.zama.ai/feed.atom",
			},
			Twitter: TwitterSource{
				Enabled: boolPtr(false),
				Handle:  "zama_fhe",
				Mirrors: []string{
					"https://nitter.net",
					"https://nitter.privacydev.net",
					"https://nitter.poast.org",
					"https://nitter.1d4.us",
				},
				MaxItems: 10,
			},
		},
	}
}
