package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tunedrop/internal/core"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# TuneDrop Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	content.WriteString("# Format: TUNEDROP_<SECTION>_<SETTING>=value\n")
	content.WriteString("# CLI equivalent: --<section>-<setting>\n")
	content.WriteString("#\n")
	content.WriteString("# =============================================================================\n\n")

	generateBackendSection(&content, cmd)
	generateCatalogSection(&content, cmd)
	generateStoreSection(&content, cmd)
	generateTimingSection(&content, cmd)
	generatePlaylistSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateLoggingSection(&content, cmd)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return "TUNEDROP_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func writeSectionHeader(content *strings.Builder, title, cli string) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", title)
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# CLI: %s\n", cli)
}

func generateBackendSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Playlist Backend", "--backend-url, --backend-timeout-secs")

	urlDefault := getDefaultValueString(cmd, "backend-url")
	timeoutDefault := getDefaultValueString(cmd, "backend-timeout-secs")

	fmt.Fprintf(content, "%s=%s          # Serves /search, /added-songs and /add-song (default: %s)\n",
		flagToEnvVar("backend-url"), urlDefault, urlDefault)
	fmt.Fprintf(content, "%s=%s                     # Request timeout in seconds (default: %s)\n",
		flagToEnvVar("backend-timeout-secs"), timeoutDefault, timeoutDefault)
	content.WriteString("\n")
}

func generateCatalogSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Track Catalog",
		"--catalog, --spotify-client-id, --spotify-client-secret, --spotify-market")

	catalogDefault := getDefaultValueString(cmd, "catalog")
	marketDefault := getDefaultValueString(cmd, "spotify-market")
	rateDefault := getDefaultValueString(cmd, "search-rate-per-second")

	fmt.Fprintf(content, "%s=%s                           # Catalog: %s, %s (default: %s)\n",
		flagToEnvVar("catalog"), catalogDefault, core.CatalogBackend, core.CatalogSpotify, catalogDefault)
	content.WriteString("\n")
	content.WriteString("# Spotify credentials from https://developer.spotify.com/dashboard\n")
	content.WriteString("# Uncomment these lines and set TUNEDROP_CATALOG=spotify\n")
	fmt.Fprintf(content, "# %s=your_spotify_client_id_here\n", flagToEnvVar("spotify-client-id"))
	fmt.Fprintf(content, "# %s=your_spotify_client_secret_here\n", flagToEnvVar("spotify-client-secret"))
	fmt.Fprintf(content, "%s=%s                          # Market for search results (default: %s)\n",
		flagToEnvVar("spotify-market"), marketDefault, marketDefault)
	fmt.Fprintf(content, "%s=%s                   # Spotify searches per second, 0=unlimited (default: %s)\n",
		flagToEnvVar("search-rate-per-second"), rateDefault, rateDefault)
	content.WriteString("\n")
}

func generateStoreSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Playlist Store", "--store, --store-path, --dedup-capacity")

	storeDefault := getDefaultValueString(cmd, "store")
	pathDefault := getDefaultValueString(cmd, "store-path")
	capacityDefault := getDefaultValueString(cmd, "dedup-capacity")

	fmt.Fprintf(content, "%s=%s                             # Store: %s, %s (default: %s)\n",
		flagToEnvVar("store"), storeDefault, core.StoreBackend, core.StoreSQLite, storeDefault)
	fmt.Fprintf(content, "%s=%s                 # sqlite database file (default: %s)\n",
		flagToEnvVar("store-path"), pathDefault, pathDefault)
	fmt.Fprintf(content, "%s=%s                     # Expected playlist size for duplicate checks (default: %s)\n",
		flagToEnvVar("dedup-capacity"), capacityDefault, capacityDefault)
	content.WriteString("\n")
}

func generateTimingSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Search, Notifications and Cover Colors",
		"--search-debounce-ms, --search-cache-size, --notify-expiry-secs, etc.")

	for _, setting := range []struct {
		flag        string
		description string
	}{
		{"search-debounce-ms", "Quiet period before a search runs"},
		{"search-cache-size", "Cached search queries, 0=disabled"},
		{"search-cache-ttl-secs", "Search cache lifetime"},
		{"resolve-links", "Search for the song behind links to other services"},
		{"notify-expiry-secs", "Seconds a notification stays visible"},
		{"image-timeout-secs", "Cover image download timeout"},
	} {
		def := getDefaultValueString(cmd, setting.flag)
		fmt.Fprintf(content, "%s=%s          # %s (default: %s)\n",
			flagToEnvVar(setting.flag), def, setting.description, def)
	}
	content.WriteString("\n")
}

func generatePlaylistSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Playlist Table and Flood Prevention",
		"--page-size, --flood-limit-per-minute, --blocked-words")

	pageDefault := getDefaultValueString(cmd, "page-size")
	floodDefault := getDefaultValueString(cmd, "flood-limit-per-minute")

	fmt.Fprintf(content, "%s=%s                              # Rows per page: %s (default: %s)\n",
		flagToEnvVar("page-size"), pageDefault, joinInts(core.PageSizeOptions), pageDefault)
	fmt.Fprintf(content, "%s=%s                  # Max suggestions per nickname per minute (default: %s)\n",
		flagToEnvVar("flood-limit-per-minute"), floodDefault, floodDefault)
	fmt.Fprintf(content, "# %s=\"word1 word2\"        # Extra words rejected in nicknames\n",
		flagToEnvVar("blocked-words"))
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "HTTP Server Configuration (health and metrics)",
		"--server-enabled, --server-host, --server-port")

	enabledDefault := getDefaultValueString(cmd, "server-enabled")
	hostDefault := getDefaultValueString(cmd, "server-host")
	portDefault := getDefaultValueString(cmd, "server-port")

	fmt.Fprintf(content, "%s=%s                      # Serve /healthz, /readyz and /metrics (default: %s)\n",
		flagToEnvVar("server-enabled"), enabledDefault, enabledDefault)
	fmt.Fprintf(content, "%s=%s                    # Server bind address (default: %s)\n",
		flagToEnvVar("server-host"), hostDefault, hostDefault)
	fmt.Fprintf(content, "%s=%s                         # Server port (default: %s)\n",
		flagToEnvVar("server-port"), portDefault, portDefault)
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Logging Configuration", "--log-level, --log-file")

	levelDefault := getDefaultValueString(cmd, "log-level")
	fileDefault := getDefaultValueString(cmd, "log-file")

	fmt.Fprintf(content, "%s=%s                           # Log level: debug, info, warn, error (default: %s)\n",
		flagToEnvVar("log-level"), levelDefault, levelDefault)
	fmt.Fprintf(content, "%s=%s                   # Log file, the terminal belongs to the UI (default: %s)\n",
		flagToEnvVar("log-file"), fileDefault, fileDefault)
}
