package core

import (
	"time"
)

// Configuration defaults.
const (
	DefaultDebounceDelay       = 500 * time.Millisecond
	DefaultNotificationExpiry  = 10 * time.Second
	DefaultPageSize            = 10
	DefaultServerPort          = 9090
	DefaultSearchCacheSize     = 256
	DefaultSearchCacheTTL      = 5 * time.Minute
	DefaultSearchRatePerSecond = 5
	DefaultFloodLimitPerMinute = 5
	DefaultDedupCapacity       = 10000
	DefaultDedupFalsePositive  = 0.001
	DefaultImageFetchTimeout   = 15 * time.Second

	// MaxNicknameLength is counted in runes.
	MaxNicknameLength   = 15
	MaxDisplayedResults = 8

	CatalogBackend = "backend"
	CatalogSpotify = "spotify"

	StoreBackend = "backend"
	StoreSQLite  = "sqlite"
)

// PageSizeOptions are the page sizes offered by the playlist table.
var PageSizeOptions = []int{10, 25, 50, 100}

type Config struct {
	Backend  BackendConfig
	Spotify  SpotifyConfig
	Store    StoreConfig
	Search   SearchConfig
	Notify   NotifyConfig
	Palette  PaletteConfig
	Playlist PlaylistConfig
	Server   ServerConfig
	Log      LogConfig
}

type BackendConfig struct {
	// BaseURL of the REST backend serving /search and /playlist.
	BaseURL        string
	RequestTimeout time.Duration
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	Market       string
}

type StoreConfig struct {
	// Kind selects where the playlist lives: the backend or a local sqlite file.
	Kind                   string
	Path                   string
	DedupCapacity          int
	DedupFalsePositiveRate float64
}

type SearchConfig struct {
	Catalog       string
	DebounceDelay time.Duration
	CacheSize     int
	CacheTTL      time.Duration
	RatePerSecond float64
	// ResolveLinks searches for the song behind links to other music services.
	ResolveLinks bool
}

type NotifyConfig struct {
	Expiry time.Duration
}

type PaletteConfig struct {
	FetchTimeout time.Duration
}

type PlaylistConfig struct {
	PageSize            int
	FloodLimitPerMinute int
	// BlockedWords extend the built-in nickname word list.
	BlockedWords []string
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5001",
			RequestTimeout: 10 * time.Second,
		},
		Spotify: SpotifyConfig{
			Market: "US",
		},
		Store: StoreConfig{
			Kind:                   StoreBackend,
			Path:                   "./tunedrop.db",
			DedupCapacity:          DefaultDedupCapacity,
			DedupFalsePositiveRate: DefaultDedupFalsePositive,
		},
		Search: SearchConfig{
			Catalog:       CatalogBackend,
			DebounceDelay: DefaultDebounceDelay,
			CacheSize:     DefaultSearchCacheSize,
			CacheTTL:      DefaultSearchCacheTTL,
			RatePerSecond: DefaultSearchRatePerSecond,
			ResolveLinks:  true,
		},
		Notify: NotifyConfig{
			Expiry: DefaultNotificationExpiry,
		},
		Palette: PaletteConfig{
			FetchTimeout: DefaultImageFetchTimeout,
		},
		Playlist: PlaylistConfig{
			PageSize:            DefaultPageSize,
			FloodLimitPerMinute: DefaultFloodLimitPerMinute,
		},
		Server: ServerConfig{
			Enabled:      true,
			Host:         "127.0.0.1",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			File:  "tunedrop.log",
		},
	}
}
