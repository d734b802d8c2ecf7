package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// Repo is the GitHub repository releases are fetched from.
const Repo = "Fepozopo/instafilter"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// pickLatestRelease chooses the highest published, non-prerelease version
// from a GitHub releases listing. Tags need only contain a semver somewhere
// (e.g. "instafilter-v1.2.0"); the release name is tried when the tag has none.
func pickLatestRelease(body []byte) (*selfupdate.Release, bool, error) {
	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, false, fmt.Errorf("failed to decode github releases: %w", err)
	}

	type candidate struct {
		ver      semver.Version
		assetURL string
	}
	var candidates []candidate
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		match := semverRe.FindString(r.TagName)
		if match == "" {
			if match = semverRe.FindString(r.Name); match == "" {
				continue
			}
		}
		v, err := semver.Parse(strings.TrimPrefix(match, "v"))
		if err != nil {
			continue
		}
		assetURL := ""
		// prefer an asset that looks like a binary for some platform
		for _, a := range r.Assets {
			n := strings.ToLower(a.Name)
			if strings.Contains(n, "darwin") || strings.Contains(n, "linux") || strings.Contains(n, "windows") ||
				strings.Contains(n, "amd64") || strings.Contains(n, "arm64") {
				assetURL = a.BrowserDownloadURL
				break
			}
			if assetURL == "" {
				assetURL = a.BrowserDownloadURL
			}
		}
		candidates = append(candidates, candidate{ver: v, assetURL: assetURL})
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ver.GT(candidates[j].ver) })
	best := candidates[0]
	return &selfupdate.Release{Version: best.ver, AssetURL: best.assetURL}, true, nil
}

// detectLatest asks go-github-selfupdate first and falls back to scanning
// the releases API, which tolerates tag names the library does not accept.
func detectLatest(repo string) (*selfupdate.Release, bool, error) {
	if rel, found, err := selfupdate.DetectLatest(repo); err == nil && found {
		return rel, true, nil
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(fmt.Sprintf("https://api.github.com/repos/%s/releases", repo))
	if err != nil {
		return nil, false, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}
	return pickLatestRelease(body)
}

// Updater checks GitHub for a newer release and replaces the running binary.
type Updater struct {
	Repo    string
	Current string
	Out     io.Writer
	Confirm func(prompt string) (bool, error)
	Detect  func(repo string) (*selfupdate.Release, bool, error)
	Apply   func(assetURL, exe string) error
}

// NewUpdater returns an updater for Repo at Version that asks p before updating.
func NewUpdater(p *Prompter, out io.Writer) *Updater {
	return &Updater{
		Repo:    Repo,
		Current: Version,
		Out:     out,
		Confirm: p.Confirm,
		Detect:  detectLatest,
		Apply:   selfupdate.UpdateTo,
	}
}

// Check reports the current and latest versions and offers to update.
// It returns true when the binary was replaced.
func (u *Updater) Check() (bool, error) {
	fmt.Fprintf(u.Out, "Current version: %s\n", u.Current)
	latest, found, err := u.Detect(u.Repo)
	if err != nil {
		return false, fmt.Errorf("update check failed: %w", err)
	}
	if !found || latest == nil {
		fmt.Fprintf(u.Out, "No releases found for %s.\n", u.Repo)
		return false, nil
	}
	fmt.Fprintf(u.Out, "Latest version: %s\n", latest.Version)

	current, perr := semver.Parse(strings.TrimPrefix(u.Current, "v"))
	if perr != nil {
		fmt.Fprintf(u.Out, "warning: could not parse current version %q: %v\n", u.Current, perr)
	} else if latest.Version.LTE(current) {
		fmt.Fprintf(u.Out, "You are already running the latest version: %s.\n", current)
		return false, nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(u.Out, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		fmt.Fprintln(u.Out, "Please visit the project releases page to download the new version.")
		return false, nil
	}

	ok, err := u.Confirm(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if err != nil {
		return false, fmt.Errorf("failed reading input: %w", err)
	}
	if !ok {
		fmt.Fprintln(u.Out, "Update cancelled.")
		return false, nil
	}

	fmt.Fprintln(u.Out, "Updating...")
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("could not locate executable: %w", err)
	}
	if err := u.Apply(latest.AssetURL, exe); err != nil {
		return false, fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(u.Out, "Updated to version %s.\n", latest.Version)
	return true, nil
}

// Restart replaces the current process with the freshly installed binary,
// falling back to starting it as a child and exiting.
func Restart() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	argv := append([]string{exe}, os.Args[1:]...)
	if err := syscall.Exec(exe, argv, os.Environ()); err != nil {
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if startErr := cmd.Start(); startErr != nil {
			return fmt.Errorf("restart failed: %v; fallback start error: %w", err, startErr)
		}
		os.Exit(0)
	}
	return nil
}
