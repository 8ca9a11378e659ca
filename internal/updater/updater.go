// Package updater handles release discovery and binary replacement. The
// CLI and the daemon ship as separate binaries per release; both are
// staged before either install so an update never leaves the pair split
// across versions.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Binary names published with every release.
const (
	CLIBinary    = "gatehouse"
	DaemonBinary = "gatehoused"
)

const defaultAPIBase = "https://api.github.com"

// Client talks to the GitHub Releases API for a single repository.
type Client struct {
	repo      string
	apiBase   string
	userAgent string
	http      *http.Client
}

// NewClient returns a client for the gatehouse release repository.
// currentVersion only tags the outgoing requests.
func NewClient(currentVersion string) *Client {
	return &Client{
		repo:      "gatehouse-io/gatehouse",
		apiBase:   defaultAPIBase,
		userAgent: "gatehouse/" + currentVersion,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Release is a published release with its downloadable assets keyed by
// asset name.
type Release struct {
	Tag    string
	URL    string
	assets map[string]string
}

type releasePayload struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Latest fetches the newest published release. A repository with no
// releases yet yields (nil, nil).
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release API returned %d", resp.StatusCode)
	}

	var payload releasePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	rel := &Release{
		Tag:    payload.TagName,
		URL:    payload.HTMLURL,
		assets: make(map[string]string, len(payload.Assets)),
	}
	for _, a := range payload.Assets {
		rel.assets[a.Name] = a.BrowserDownloadURL
	}
	return rel, nil
}

// Newer reports whether the release is strictly newer than current.
// Unparseable current versions (dev builds) count as older than any
// published release.
func (r *Release) Newer(current string) bool {
	latest, err := Parse(r.Tag)
	if err != nil {
		return false
	}
	cur, err := Parse(current)
	if err != nil {
		return true
	}
	return cur.Compare(latest) < 0
}

// assetName is the per-platform naming convention for release binaries.
func assetName(binary string) string {
	return fmt.Sprintf("%s-%s-%s", binary, runtime.GOOS, runtime.GOARCH)
}

// Stage downloads this platform's assets for the named binaries into dir
// and returns binary name to staged path. Any failure aborts the whole
// stage; nothing has been installed at that point.
func (c *Client) Stage(ctx context.Context, rel *Release, dir string, binaries ...string) (map[string]string, error) {
	staged := make(map[string]string, len(binaries))
	for _, bin := range binaries {
		name := assetName(bin)
		url, ok := rel.assets[name]
		if !ok {
			return nil, fmt.Errorf("release %s has no asset %s", rel.Tag, name)
		}
		path := filepath.Join(dir, name)
		if err := c.download(ctx, url, path); err != nil {
			return nil, fmt.Errorf("download %s: %w", name, err)
		}
		staged[bin] = path
	}
	return staged, nil
}

func (c *Client) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// Install swaps the binary at target for the staged file. The running
// binary is parked next to the target until the swap lands; a failed
// rename rolls the park back instead of leaving no binary at all.
func Install(target, staged string) error {
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}

	parked := resolved + ".old"
	os.Remove(parked)

	if err := os.Rename(resolved, parked); err != nil {
		return fmt.Errorf("park current binary: %w", err)
	}
	if err := os.Rename(staged, resolved); err != nil {
		_ = os.Rename(parked, resolved)
		return fmt.Errorf("install %s: %w", staged, err)
	}
	os.Remove(parked)
	return nil
}
