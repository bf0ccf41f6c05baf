package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"affilink/internal/config"

	"github.com/oschwald/geoip2-golang"
)

// CountryResolver resolves a requester IP to an ISO country code. Lookup
// failure must never block a redirect, so implementations return a fallback
// country instead of an error.
type CountryResolver interface {
	Country(ctx context.Context, ip string) string
}

// HTTPGeoClient resolves countries through an external lookup API under a
// hard timeout. Any failure (timeout, network, non-2xx, bad payload) yields
// the fallback country.
type HTTPGeoClient struct {
	lookupURL string // printf pattern with one %s for the IP
	fallback  string
	timeout   time.Duration
	client    *http.Client
	logger    *slog.Logger
}

func NewHTTPGeoClient(lookupURL, fallback string, timeout time.Duration, logger *slog.Logger) *HTTPGeoClient {
	return &HTTPGeoClient{
		lookupURL: lookupURL,
		fallback:  strings.ToUpper(fallback),
		timeout:   timeout,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (g *HTTPGeoClient) Country(ctx context.Context, ip string) string {
	if isLocalIP(ip) {
		return g.fallback
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(g.lookupURL, url.QueryEscape(ip)), nil)
	if err != nil {
		return g.fallback
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("geo lookup failed", "ip", ip, "error", err)
		return g.fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("geo lookup returned non-2xx", "ip", ip, "status", resp.StatusCode)
		return g.fallback
	}

	var payload struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.CountryCode == "" {
		return g.fallback
	}

	return strings.ToUpper(payload.CountryCode)
}

func isLocalIP(ipStr string) bool {
	if ipStr == "" || ipStr == "localhost" {
		return true
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()
}

// MMDBResolver is the local-database alternative: a MaxMind reader with a
// background downloader, refreshed daily. It does no network I/O on the
// request path.
type MMDBResolver struct {
	cfg       config.Config
	fallback  string
	logger    *slog.Logger
	geoReader *geoip2.Reader
	geoLock   sync.RWMutex
}

func NewMMDBResolver(cfg config.Config, logger *slog.Logger) *MMDBResolver {
	return &MMDBResolver{
		cfg:      cfg,
		fallback: strings.ToUpper(cfg.GeoFallbackCountry),
		logger:   logger,
	}
}

func (s *MMDBResolver) Init() {
	if s.cfg.MaxMindAccountID == "" || s.cfg.MaxMindLicenseKey == "" {
		s.logger.Warn("GeoIP: MaxMind credentials not set, lookups will use the fallback country")
		return
	}

	dbPath := s.cfg.MaxMindDBPath
	dbDir := filepath.Dir(dbPath)

	if err := os.MkdirAll(dbDir, 0755); err != nil {
		s.logger.Error("GeoIP: failed to create directory", "dir", dbDir, "error", err)
		return
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		s.logger.Info("GeoIP: database missing, downloading...")
		if err := s.updateGeoDB(); err != nil {
			s.logger.Error("GeoIP: initial download failed", "error", err)
		}
	}

	s.reloadReader(dbPath)
}

func (s *MMDBResolver) StartUpdater(ctx context.Context) {
	if s.cfg.MaxMindAccountID == "" {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("GeoIP: running scheduled update...")
			if err := s.updateGeoDB(); err != nil {
				s.logger.Error("GeoIP: update failed", "error", err)
				continue
			}
			s.reloadReader(s.cfg.MaxMindDBPath)
		case <-ctx.Done():
			s.logger.Info("GeoIP: updater stopping")
			return
		}
	}
}

func (s *MMDBResolver) updateGeoDB() error {
	dbDir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dbDir, "GeoIP.conf")

	content := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dbDir)

	if err := os.WriteFile(confPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	cmd := exec.Command("geoipupdate", "-v", "-f", confPath, "-d", dbDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(output))
	}

	s.logger.Info("GeoIP: database updated successfully")
	return nil
}

func (s *MMDBResolver) reloadReader(path string) {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()

	if s.geoReader != nil {
		s.geoReader.Close()
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		s.logger.Error("GeoIP: failed to open database", "path", path, "error", err)
		return
	}
	s.geoReader = reader

	meta := reader.Metadata()
	s.logger.Info("GeoIP: loaded database", "epoch", meta.BuildEpoch)
}

func (s *MMDBResolver) Country(ctx context.Context, ipStr string) string {
	if isLocalIP(ipStr) {
		return s.fallback
	}

	s.geoLock.RLock()
	reader := s.geoReader
	s.geoLock.RUnlock()

	if reader == nil {
		return s.fallback
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return s.fallback
	}

	record, err := reader.Country(ip)
	if err != nil {
		s.logger.Warn("GeoIP: lookup error", "ip", ipStr, "error", err)
		return s.fallback
	}

	if record.Country.IsoCode == "" {
		return s.fallback
	}
	return record.Country.IsoCode
}
