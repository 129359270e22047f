package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CommitSourceAdapter = (*Adapter)(nil)

// Adapter fetches commit activity from the GitHub REST API v3.
// Authorization: Bearer <owner's access token>, per call.
type Adapter struct {
	base   string // e.g., https://api.github.com
	client *http.Client
}

func NewAdapter(baseURL string) *Adapter {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &Adapter{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type branchPayload struct {
	Name string `json:"name"`
}

type commitPayload struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

type commitDetailPayload struct {
	commitPayload
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
	Files []struct {
		Filename string `json:"filename"`
	} `json:"files"`
}

// FetchCommits lists commits since the given instant across all branches,
// deduplicated by SHA. A commit on several branches is attributed to the
// first branch that reported it.
func (a *Adapter) FetchCommits(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
	var branches []branchPayload
	branchesURL := fmt.Sprintf("%s/repos/%s/branches?per_page=100", a.base, repoFullName)
	if err := a.getJSON(ctx, token, branchesURL, &branches); err != nil {
		return nil, fmt.Errorf("list branches for %s: %w", repoFullName, err)
	}

	seen := make(map[string]struct{})
	var out []model.Commit
	for _, b := range branches {
		commitsURL := fmt.Sprintf("%s/repos/%s/commits?sha=%s&since=%s&per_page=100",
			a.base, repoFullName, url.QueryEscape(b.Name), url.QueryEscape(since.UTC().Format(time.RFC3339)))

		var commits []commitPayload
		if err := a.getJSON(ctx, token, commitsURL, &commits); err != nil {
			return nil, fmt.Errorf("list commits for %s@%s: %w", repoFullName, b.Name, err)
		}
		for _, c := range commits {
			if _, dup := seen[c.SHA]; dup {
				continue
			}
			seen[c.SHA] = struct{}{}
			out = append(out, model.Commit{
				SHA:       c.SHA,
				Message:   c.Commit.Message,
				Author:    c.Commit.Author.Name,
				Timestamp: c.Commit.Author.Date,
				Branch:    b.Name,
			})
		}
	}
	return out, nil
}

func (a *Adapter) FetchCommitDetail(ctx context.Context, token, repoFullName, sha string) (*model.CommitDetail, error) {
	detailURL := fmt.Sprintf("%s/repos/%s/commits/%s", a.base, repoFullName, sha)

	var payload commitDetailPayload
	if err := a.getJSON(ctx, token, detailURL, &payload); err != nil {
		return nil, fmt.Errorf("commit detail %s@%s: %w", repoFullName, sha, err)
	}

	detail := &model.CommitDetail{
		Commit: model.Commit{
			SHA:       payload.SHA,
			Message:   payload.Commit.Message,
			Author:    payload.Commit.Author.Name,
			Timestamp: payload.Commit.Author.Date,
		},
		Additions: payload.Stats.Additions,
		Deletions: payload.Stats.Deletions,
	}
	for _, f := range payload.Files {
		detail.FilesChanged = append(detail.FilesChanged, f.Filename)
	}
	return detail, nil
}

func (a *Adapter) getJSON(ctx context.Context, token, rawURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("github http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
