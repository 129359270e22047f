package model

import "time"

// Commit is one commit as returned by the source-control host, already
// deduplicated across branches.
type Commit struct {
	SHA       string    `json:"sha"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Branch    string    `json:"branch,omitempty"`
}

// CommitDetail adds per-commit stats fetched in a second, per-SHA call.
type CommitDetail struct {
	Commit
	Additions    int      `json:"additions"`
	Deletions    int      `json:"deletions"`
	FilesChanged []string `json:"files_changed,omitempty"`
}
