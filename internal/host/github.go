package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

// DefaultStatusURL is the GitHub status page endpoint.
const DefaultStatusURL = "https://www.githubstatus.com/api/v2/status.json"

// DefaultStatusTimeout bounds the status check so a release fails fast.
const DefaultStatusTimeout = 10 * time.Second

// maxStatusBody caps how much of a status response is read.
const maxStatusBody = 1 << 20

// ErrMissingToken is returned by PublishRelease when no token is supplied.
var ErrMissingToken = errors.New("no API token supplied")

// ErrRepositoryUnknown is returned by PublishRelease when the gateway was built
// without a repository owner and name.
var ErrRepositoryUnknown = errors.New("repository owner and name unknown")

// GitHubOptions configures a [GitHub] gateway.
type GitHubOptions struct {
	// Owner and Repo identify the repository releases are published to.
	Owner string
	Repo  string

	// StatusURL overrides [DefaultStatusURL].
	StatusURL string

	// APIURL overrides the GitHub REST API base URL (GitHub Enterprise, tests).
	APIURL string

	// HTTPClient is used for every request. Defaults to a client with
	// [DefaultStatusTimeout].
	HTTPClient *http.Client

	Logger *zap.Logger
}

// GitHub is a [Gateway] backed by githubstatus.com and the GitHub releases API.
type GitHub struct {
	owner      string
	repo       string
	statusURL  string
	apiURL     *url.URL
	httpClient *http.Client
	log        *zap.Logger
}

var _ Gateway = (*GitHub)(nil)

// NewGitHub creates a [GitHub] gateway.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	g := &GitHub{
		owner:      opts.Owner,
		repo:       opts.Repo,
		statusURL:  opts.StatusURL,
		httpClient: opts.HTTPClient,
		log:        opts.Logger,
	}
	if g.statusURL == "" {
		g.statusURL = DefaultStatusURL
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: DefaultStatusTimeout}
	}
	if g.log == nil {
		g.log = zap.NewNop()
	}
	if opts.APIURL != "" {
		base := opts.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL %q: %w", opts.APIURL, err)
		}
		g.apiURL = u
	}
	return g, nil
}

// CheckServiceStatus fetches and decodes the status endpoint.
func (g *GitHub) CheckServiceStatus(ctx context.Context) (ServiceStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.statusURL, nil)
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("failed to build status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		return ServiceStatus{}, fmt.Errorf("failed to read status response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ServiceStatus{}, fmt.Errorf("status endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	status, err := DecodeStatus(body)
	if err != nil {
		return ServiceStatus{}, err
	}
	g.log.Debug("host status", zap.String("status", status.Status), zap.String("description", status.Description))
	return status, nil
}

// PublishRelease creates one GitHub release per draft.
//
// API error responses with a 4xx status become rejected results carrying the
// API message and every field error. Network failures, 5xx responses and rate
// limiting abort publishing and are returned as errors.
func (g *GitHub) PublishRelease(ctx context.Context, cfg PublishConfig) ([]PublishResult, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if g.owner == "" || g.repo == "" {
		return nil, ErrRepositoryUnknown
	}

	client := github.NewClient(g.httpClient).WithAuthToken(cfg.Token)
	if g.apiURL != nil {
		client.BaseURL = g.apiURL
	}

	results := make([]PublishResult, 0, len(cfg.Drafts))
	for _, d := range cfg.Drafts {
		release := &github.RepositoryRelease{
			TagName:    github.String(d.Tag),
			Name:       github.String(d.Name),
			Body:       github.String(d.Body),
			Prerelease: github.Bool(d.Prerelease),
		}

		created, _, err := client.Repositories.CreateRelease(ctx, g.owner, g.repo, release)
		if err != nil {
			reasons, rejected := rejectionReasons(err)
			if !rejected {
				return results, fmt.Errorf("failed to publish release %s: %w", d.Tag, err)
			}
			g.log.Warn("release rejected", zap.String("tag", d.Tag), zap.Int("reasons", len(reasons)))
			results = append(results, PublishResult{Tag: d.Tag, State: StateRejected, Reasons: reasons})
			continue
		}

		g.log.Info("release published", zap.String("tag", d.Tag), zap.String("url", created.GetHTMLURL()))
		results = append(results, PublishResult{Tag: d.Tag, State: StateFulfilled, URL: created.GetHTMLURL()})
	}
	return results, nil
}

// rejectionReasons extracts the reasons from a 4xx API error response.
// rejected is false for anything that is not a semantic refusal.
func rejectionReasons(err error) (reasons []Rejection, rejected bool) {
	var apiErr *github.ErrorResponse
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return nil, false
	}
	code := apiErr.Response.StatusCode
	if code < 400 || code > 499 {
		return nil, false
	}

	if apiErr.Message != "" {
		reasons = append(reasons, Rejection{Message: apiErr.Message})
	}
	for _, e := range apiErr.Errors {
		msg := e.Message
		if msg == "" {
			msg = strings.TrimSpace(fmt.Sprintf("%s %s %s", e.Resource, e.Field, e.Code))
		}
		reasons = append(reasons, Rejection{Message: msg})
	}
	if len(reasons) == 0 {
		reasons = append(reasons, Rejection{Message: http.StatusText(code)})
	}
	return reasons, true
}
