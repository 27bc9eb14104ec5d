package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidSHA        = errors.New("invalid commit sha")
	ErrInvalidRepository = errors.New("invalid repository full_name")
)

var (
	shaPattern      = regexp.MustCompile(`^([0-9a-f]{40}|[0-9a-f]{64})$`)
	fullNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

type Repository struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
}

type Commit struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Push is the subset of GitHub's push event payload the receiver acts on.
type Push struct {
	Ref        string     `json:"ref"`
	Before     string     `json:"before,omitempty"`
	After      string     `json:"after"`
	Repository Repository `json:"repository"`
	Commits    []Commit   `json:"commits"`
	HeadCommit *Commit    `json:"head_commit,omitempty"`
}

// ParsePush decodes and validates a push payload.
func ParsePush(data []byte) (*Push, error) {
	var p Push
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed push payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Push) Validate() error {
	if !ValidSHA(p.After) {
		return fmt.Errorf("%w: %q", ErrInvalidSHA, p.After)
	}
	if !ValidFullName(p.Repository.FullName) {
		return fmt.Errorf("%w: %q", ErrInvalidRepository, p.Repository.FullName)
	}
	if p.Repository.CloneURL == "" && !p.IsDeletion() {
		return fmt.Errorf("push payload is missing repository.clone_url")
	}
	return nil
}

func ValidSHA(sha string) bool {
	return shaPattern.MatchString(sha)
}

// ValidFullName reports whether name has the "owner/name" shape. Dot-only
// segments are refused since the name becomes part of an API path.
func ValidFullName(name string) bool {
	if !fullNamePattern.MatchString(name) {
		return false
	}
	for _, segment := range strings.Split(name, "/") {
		if strings.Trim(segment, ".") == "" {
			return false
		}
	}
	return true
}

// IsDeletion reports whether the push removed its ref. GitHub sends an
// all-zero "after" in that case.
func (p *Push) IsDeletion() bool {
	return strings.Trim(p.After, "0") == ""
}

// WorkspaceKey identifies the run workspace and its lock.
func (p *Push) WorkspaceKey() string {
	return fmt.Sprintf("%d%s", p.Repository.ID, p.After)
}

// LatestMessage returns the message of the first listed commit, falling back
// to the head commit.
func (p *Push) LatestMessage() string {
	if len(p.Commits) > 0 {
		return p.Commits[0].Message
	}
	if p.HeadCommit != nil {
		return p.HeadCommit.Message
	}
	return ""
}
