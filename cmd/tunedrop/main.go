// Package main provides the TuneDrop terminal client entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunedrop/internal/backend"
	"tunedrop/internal/core"
	"tunedrop/internal/flood"
	httpserver "tunedrop/internal/http"
	"tunedrop/internal/notify"
	"tunedrop/internal/palette"
	"tunedrop/internal/playlist"
	"tunedrop/internal/search"
	"tunedrop/internal/spotify"
	"tunedrop/internal/store"
	"tunedrop/internal/tui"
	"tunedrop/pkg/musiclink"
	"tunedrop/pkg/profanity"
)

const version = "1.0.0"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunedrop",
	Short: "TuneDrop - suggest a song for the shared playlist",
	Long: `TuneDrop is a terminal client for a shared party playlist. Search the catalog,
pick a track, sign it with a nickname and watch it land in the playlist.`,
	RunE: runTuneDrop,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", defaults.Log.File, "log file (the terminal belongs to the UI)")
	rootCmd.PersistentFlags().String("backend-url", defaults.Backend.BaseURL, "Playlist backend base URL")
	rootCmd.PersistentFlags().Int("backend-timeout-secs", int(defaults.Backend.RequestTimeout.Seconds()),
		"Backend request timeout in seconds")
	rootCmd.PersistentFlags().String("catalog", defaults.Search.Catalog, "Track catalog (backend, spotify)")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-market", defaults.Spotify.Market, "Spotify market for search results")
	rootCmd.PersistentFlags().String("store", defaults.Store.Kind, "Playlist store (backend, sqlite)")
	rootCmd.PersistentFlags().String("store-path", defaults.Store.Path, "sqlite database path")
	rootCmd.PersistentFlags().Int("dedup-capacity", defaults.Store.DedupCapacity, "Expected number of playlist tracks")
	rootCmd.PersistentFlags().Int("search-debounce-ms", int(defaults.Search.DebounceDelay.Milliseconds()),
		"Quiet period before a search runs in milliseconds")
	rootCmd.PersistentFlags().Int("search-cache-size", defaults.Search.CacheSize, "Cached search queries")
	rootCmd.PersistentFlags().Int("search-cache-ttl-secs", int(defaults.Search.CacheTTL.Seconds()),
		"Search cache lifetime in seconds")
	rootCmd.PersistentFlags().Float64("search-rate-per-second", defaults.Search.RatePerSecond,
		"Maximum Spotify searches per second (0 disables the limit)")
	rootCmd.PersistentFlags().Bool("resolve-links", defaults.Search.ResolveLinks,
		"Search for the song behind YouTube, SoundCloud, Apple Music, Tidal and Bandcamp links")
	rootCmd.PersistentFlags().Int("notify-expiry-secs", int(defaults.Notify.Expiry.Seconds()),
		"Seconds a notification stays visible")
	rootCmd.PersistentFlags().Int("image-timeout-secs", int(defaults.Palette.FetchTimeout.Seconds()),
		"Cover image download timeout in seconds")
	rootCmd.PersistentFlags().Int("page-size", defaults.Playlist.PageSize,
		fmt.Sprintf("Playlist rows per page (%s)", joinInts(core.PageSizeOptions)))
	rootCmd.PersistentFlags().Int("flood-limit-per-minute", defaults.Playlist.FloodLimitPerMinute,
		"Maximum suggestions per nickname per minute")
	rootCmd.PersistentFlags().StringSlice("blocked-words", nil, "Additional words rejected in nicknames")
	rootCmd.PersistentFlags().Bool("server-enabled", defaults.Server.Enabled, "Serve health and metrics endpoints")
	rootCmd.PersistentFlags().String("server-host", defaults.Server.Host, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", defaults.Server.Port, "HTTP server port")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("TUNEDROP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.File)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureBackend(cfg)
	configureSpotify(cfg)
	configureStore(cfg)
	configureSearch(cfg)
	configureNotify(cfg)
	configurePalette(cfg)
	configurePlaylist(cfg)
	configureServer(cfg)
	configureLog(cfg)

	return cfg
}

func configureBackend(cfg *core.Config) {
	cfg.Backend.BaseURL = strings.TrimSpace(viper.GetString("backend-url"))
	if secs := viper.GetInt("backend-timeout-secs"); secs > 0 {
		cfg.Backend.RequestTimeout = time.Duration(secs) * time.Second
	}
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Spotify.Market = strings.ToUpper(viper.GetString("spotify-market"))
}

func configureStore(cfg *core.Config) {
	cfg.Store.Kind = strings.ToLower(viper.GetString("store"))
	cfg.Store.Path = viper.GetString("store-path")
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./tunedrop.db"
	}
	if capacity := viper.GetInt("dedup-capacity"); capacity > 0 {
		cfg.Store.DedupCapacity = capacity
	}
}

func configureSearch(cfg *core.Config) {
	cfg.Search.Catalog = strings.ToLower(viper.GetString("catalog"))
	if ms := viper.GetInt("search-debounce-ms"); ms > 0 {
		cfg.Search.DebounceDelay = time.Duration(ms) * time.Millisecond
	}
	cfg.Search.CacheSize = viper.GetInt("search-cache-size")
	if secs := viper.GetInt("search-cache-ttl-secs"); secs >= 0 {
		cfg.Search.CacheTTL = time.Duration(secs) * time.Second
	}
	cfg.Search.RatePerSecond = viper.GetFloat64("search-rate-per-second")
	cfg.Search.ResolveLinks = viper.GetBool("resolve-links")
}

func configureNotify(cfg *core.Config) {
	secs := viper.GetInt("notify-expiry-secs")
	if secs <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid notification expiry (%d), using default (%v)\n",
			secs, core.DefaultNotificationExpiry)
		return
	}
	cfg.Notify.Expiry = time.Duration(secs) * time.Second
}

func configurePalette(cfg *core.Config) {
	if secs := viper.GetInt("image-timeout-secs"); secs > 0 {
		cfg.Palette.FetchTimeout = time.Duration(secs) * time.Second
	}
}

func configurePlaylist(cfg *core.Config) {
	pageSize := viper.GetInt("page-size")
	if !slices.Contains(core.PageSizeOptions, pageSize) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported page size %d, falling back to %d. Supported sizes: %s\n",
			pageSize, core.DefaultPageSize, joinInts(core.PageSizeOptions))
		pageSize = core.DefaultPageSize
	}
	cfg.Playlist.PageSize = pageSize

	cfg.Playlist.FloodLimitPerMinute = viper.GetInt("flood-limit-per-minute")
	if cfg.Playlist.FloodLimitPerMinute <= 0 {
		cfg.Playlist.FloodLimitPerMinute = core.DefaultFloodLimitPerMinute
	}

	cfg.Playlist.BlockedWords = viper.GetStringSlice("blocked-words")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Enabled = viper.GetBool("server-enabled")
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	cfg.Server.Port = viper.GetInt("server-port")
}

func configureLog(cfg *core.Config) {
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.File = viper.GetString("log-file")
}

// buildLogger writes to file when one is given; the UI owns the terminal.
func buildLogger(level, file string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTuneDrop(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting TuneDrop",
		zap.String("version", version),
		zap.String("catalog", config.Search.Catalog),
		zap.String("store", config.Store.Kind),
		zap.Bool("server_enabled", config.Server.Enabled))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

type services struct {
	metrics    *httpserver.Metrics
	httpServer *httpserver.Server
	sqlite     *store.SQLitePlaylist
	throttle   *flood.Throttle
	pipeline   *search.Pipeline
	extractor  *palette.Extractor
	notifier   *notify.Manager
	controller *playlist.Controller
}

func initializeServices(ctx context.Context) (*services, error) {
	svcs := &services{metrics: httpserver.NewMetrics()}

	dedup, err := store.NewDedupStore(config.Store.DedupCapacity, config.Store.DedupFalsePositiveRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create dedup store: %w", err)
	}

	backendClient := backend.NewClient(config.Backend.BaseURL,
		&http.Client{Timeout: config.Backend.RequestTimeout}, logger)

	playlistStore, err := createPlaylistStore(ctx, svcs, backendClient)
	if err != nil {
		return nil, err
	}

	catalog, err := createCatalog(ctx, backendClient)
	if err != nil {
		svcs.close()
		return nil, err
	}
	if config.Search.ResolveLinks {
		links := musiclink.NewManager(&http.Client{Timeout: config.Backend.RequestTimeout})
		catalog = search.NewLinkCatalog(catalog, links, logger)
	}
	if config.Search.CacheSize > 0 {
		catalog = store.NewCachedCatalog(catalog, config.Search.CacheSize, config.Search.CacheTTL, logger)
	}

	svcs.notifier = notify.NewManager(config.Notify.Expiry, svcs.metrics, logger)
	svcs.pipeline = search.NewPipeline(catalog, config.Search.DebounceDelay, svcs.metrics, logger)
	svcs.extractor = palette.NewExtractor(
		palette.NewHTTPImageLoader(&http.Client{Timeout: config.Palette.FetchTimeout}),
		config.Palette.FetchTimeout, svcs.metrics, logger)

	svcs.throttle = flood.New(config.Playlist.FloodLimitPerMinute)
	svcs.controller = playlist.NewController(playlistStore, dedup,
		profanity.NewFilter(config.Playlist.BlockedWords...), svcs.notifier, logger)
	svcs.controller.SetThrottle(svcs.throttle)
	svcs.metrics.RegisterThrottle(svcs.throttle.Stats)
	svcs.controller.SetRecorder(svcs.metrics)

	if config.Server.Enabled {
		svcs.httpServer = httpserver.NewServer(&config.Server, svcs.metrics, svcs.controller.Ready,
			logger.Named("http"))
	}

	return svcs, nil
}

func createPlaylistStore(ctx context.Context, svcs *services, client *backend.Client) (core.PlaylistStore, error) {
	if config.Store.Kind == core.StoreSQLite {
		sqlite, err := store.OpenSQLitePlaylist(ctx, config.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open playlist database: %w", err)
		}
		svcs.sqlite = sqlite
		logger.Info("Using local playlist store", zap.String("path", config.Store.Path))
		return sqlite, nil
	}

	logger.Info("Using playlist backend", zap.String("url", config.Backend.BaseURL))
	return client, nil
}

func createCatalog(ctx context.Context, client *backend.Client) (core.Catalog, error) {
	if config.Search.Catalog == core.CatalogSpotify {
		catalog, err := spotify.NewCatalog(ctx, &config.Spotify, config.Search.RatePerSecond, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify catalog: %w", err)
		}
		return catalog, nil
	}
	return client, nil
}

func (s *services) close() {
	if s.pipeline != nil {
		s.pipeline.Close()
	}
	if s.extractor != nil {
		s.extractor.Close()
	}
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.throttle != nil {
		s.throttle.Stop()
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			logger.Debug("Failed to close playlist database", zap.Error(err))
		}
	}
}

func runServices(ctx context.Context, svcs *services) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	if svcs.httpServer != nil {
		g.Go(func() error {
			return svcs.httpServer.Start(gCtx)
		})
	}

	g.Go(func() error {
		// Leaving the UI stops everything else.
		defer cancel()

		model := tui.NewModel(gCtx, tui.Deps{
			Search:   svcs.pipeline,
			Palette:  svcs.extractor,
			Notify:   svcs.notifier,
			Playlist: svcs.controller,
			PageSize: config.Playlist.PageSize,
			Logger:   logger,
		})
		program := tea.NewProgram(model, tea.WithContext(gCtx), tea.WithAltScreen())
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})

	if config.Server.Enabled {
		logger.Info("TuneDrop started",
			zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))
	} else {
		logger.Info("TuneDrop started")
	}

	err := g.Wait()
	svcs.close()

	if err != nil {
		logger.Error("TuneDrop stopped with error", zap.Error(err))
		return err
	}

	logger.Info("TuneDrop stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if err := validateStoreConfig(cfg); err != nil {
		return err
	}

	if err := validateCatalogConfig(cfg); err != nil {
		return err
	}

	return nil
}

func validateStoreConfig(cfg *core.Config) error {
	switch cfg.Store.Kind {
	case core.StoreBackend:
		if cfg.Backend.BaseURL == "" {
			return errors.New("backend URL is required when the playlist lives on the backend")
		}
	case core.StoreSQLite:
		if cfg.Store.Path == "" {
			return errors.New("store path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unsupported store %q (use %s or %s)", cfg.Store.Kind, core.StoreBackend, core.StoreSQLite)
	}
	return nil
}

func validateCatalogConfig(cfg *core.Config) error {
	switch cfg.Search.Catalog {
	case core.CatalogBackend:
		if cfg.Backend.BaseURL == "" {
			return errors.New("backend URL is required for the backend catalog")
		}
	case core.CatalogSpotify:
		if cfg.Spotify.ClientID == "" {
			return errors.New("spotify client ID is required for the spotify catalog")
		}
		if cfg.Spotify.ClientSecret == "" {
			return errors.New("spotify client secret is required for the spotify catalog")
		}
	default:
		return fmt.Errorf("unsupported catalog %q (use %s or %s)",
			cfg.Search.Catalog, core.CatalogBackend, core.CatalogSpotify)
	}
	return nil
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}
