package asus

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"github.com/criteo/biosync/pkg/biosync"
	"github.com/criteo/biosync/pkg/utils"
)

const (
	DefaultBaseURL     = "https://www.asus.com"
	DefaultPageTimeout = 30 * time.Second

	// biosEntryMarker identifies the BIOS package flashed from the firmware
	// setup screen, as opposed to the Windows updater.
	biosEntryMarker = "BIOS for ASUS EZ Flash Utility"
	biosSection     = "div[class*='ProductSupportDriverBIOS__contentLeft']"
	downloadButton  = `[data-biosync="download"]`
)

var ErrInvalidVersion = errors.New("invalid BIOS version")

//go:embed find_bios.js
var findBIOSScript string

// NewASUSVendor creates a source backed by a local Chrome or Chromium binary.
// An empty browserPath lets chromedp look the browser up in PATH.
func NewASUSVendor(browserPath string, headless bool) *ASUSVendor {
	return &ASUSVendor{
		BaseURL:     DefaultBaseURL,
		BrowserPath: browserPath,
		Headless:    headless,
		PageTimeout: DefaultPageTimeout,
	}
}

// ASUSVendor reads the ASUS support site with a real browser, since the BIOS
// listing is rendered client side.
type ASUSVendor struct {
	BaseURL     string
	BrowserPath string
	Headless    bool
	PageTimeout time.Duration
}

type biosEntry struct {
	Found     bool   `json:"found"`
	Version   string `json:"version"`
	HasButton bool   `json:"hasButton"`
}

// SupportURL returns the BIOS download page of a model.
func (av *ASUSVendor) SupportURL(model biosync.Model) string {
	return fmt.Sprintf("%s/supportonly/%s/helpdesk_bios/", strings.TrimSuffix(av.BaseURL, "/"), strings.ToLower(model.String()))
}

// CheckForUpdate implements the biosync.Source interface
func (av *ASUSVendor) CheckForUpdate(ctx context.Context, model biosync.Model) (*biosync.Release, error) {
	logger := slog.With("vendor", "asus", "model", model.String())

	// The browser session is not tied to the run context: stopping a run must
	// not kill a browser that is in the middle of a download.
	sessionCtx := context.WithoutCancel(ctx)

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", av.Headless))
	if av.BrowserPath != "" {
		opts = append(opts, chromedp.ExecPath(av.BrowserPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(sessionCtx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	closeSession := func() {
		cancelBrowser()
		cancelAlloc()
		logger.Debug("Browser closed")
	}

	entry, err := av.lookup(browserCtx, logger, model)
	if err != nil {
		closeSession()
		return nil, err
	}
	if !entry.Found {
		logger.Info("No EZ Flash BIOS listed on support page")
		closeSession()
		return nil, nil
	}

	version, err := ParseVersion(entry.Version)
	if err != nil {
		closeSession()
		return nil, err
	}
	logger.Info("Found published BIOS", "version", version)

	return &biosync.Release{
		Model:   model,
		Version: version,
		Archive: ArchiveName(model, entry.Version),
		Trigger: func(_ context.Context, dir string) error {
			if !entry.HasButton {
				return fmt.Errorf("no download button for BIOS %s", entry.Version)
			}
			return av.download(browserCtx, logger, dir)
		},
		Close: closeSession,
	}, nil
}

func (av *ASUSVendor) lookup(ctx context.Context, logger *slog.Logger, model biosync.Model) (biosEntry, error) {
	url := av.SupportURL(model)
	logger.Info("Navigating to support page", "url", url)

	err := utils.Retry(ctx, func() error {
		return chromedp.Run(ctx, chromedp.Navigate(url))
	})
	if err != nil {
		return biosEntry{}, fmt.Errorf("open %s: %w", url, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, av.PageTimeout)
	defer cancel()

	var entry biosEntry
	script := fmt.Sprintf("(%s)(%q)", findBIOSScript, biosEntryMarker)
	err = chromedp.Run(waitCtx,
		chromedp.WaitReady(biosSection, chromedp.ByQuery),
		chromedp.Evaluate(script, &entry),
	)
	if err != nil {
		return biosEntry{}, fmt.Errorf("read BIOS section of %s: %w", url, err)
	}
	return entry, nil
}

func (av *ASUSVendor) download(ctx context.Context, logger *slog.Logger, dir string) error {
	// Chrome needs an absolute download directory.
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	clickCtx, cancel := context.WithTimeout(ctx, av.PageTimeout)
	defer cancel()

	logger.Info("Starting BIOS download", "dir", abs)
	return chromedp.Run(clickCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).WithDownloadPath(abs),
		chromedp.ScrollIntoView(downloadButton, chromedp.ByQuery),
		chromedp.Click(downloadButton, chromedp.ByQuery),
	)
}

// ParseVersion converts the version text shown on the support page.
func ParseVersion(text string) (biosync.Version, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return biosync.NoVersion, fmt.Errorf("%w: %q", ErrInvalidVersion, text)
	}
	return biosync.Version(n), nil
}

// ArchiveName is the file ASUS serves for a BIOS release, e.g.
// "TN3604YAAS302.zip".
func ArchiveName(model biosync.Model, version string) string {
	return biosync.DefaultArchiveName(model, strings.TrimSpace(version))
}
