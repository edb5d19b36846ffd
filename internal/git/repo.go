// Package git reads the local checkout so commands can default to the pull
// requests of the repository and branch being worked on.
package git

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

var execCommand = exec.Command

// Remote identifies an Azure DevOps git repository.
type Remote struct {
	OrgURL     string
	Project    string
	Repository string
}

// Checkout describes the repository in a working directory.
type Checkout struct {
	Root   string
	Branch string
	Remote Remote
}

// FindRepoRoot finds the git repository root from startDir, or the current
// directory when startDir is empty.
func FindRepoRoot(startDir string) (string, error) {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	cmd := execCommand("git", "-C", startDir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// GetCurrentBranch returns the current branch name.
func GetCurrentBranch(repoPath string) (string, error) {
	cmd := execCommand("git", "-C", repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(string(output))
	if branch == "HEAD" {
		return "", fmt.Errorf("detached HEAD in %s", repoPath)
	}
	return branch, nil
}

// GetRemoteURL returns the fetch URL of a remote.
func GetRemoteURL(repoPath, remote string) (string, error) {
	cmd := execCommand("git", "-C", repoPath, "remote", "get-url", remote)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("remote %s: %w", remote, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Inspect reads the checkout containing dir. The origin remote must point at
// Azure DevOps.
func Inspect(dir string) (*Checkout, error) {
	root, err := FindRepoRoot(dir)
	if err != nil {
		return nil, err
	}
	branch, err := GetCurrentBranch(root)
	if err != nil {
		return nil, err
	}
	rawURL, err := GetRemoteURL(root, "origin")
	if err != nil {
		return nil, err
	}
	remote, ok := ParseRemote(rawURL)
	if !ok {
		return nil, fmt.Errorf("origin is not an Azure DevOps repository: %s", rawURL)
	}
	return &Checkout{Root: root, Branch: branch, Remote: remote}, nil
}

// ParseRemote recognizes the Azure DevOps remote URL forms:
//
//	https://dev.azure.com/{org}/{project}/_git/{repo}
//	https://{user}@dev.azure.com/{org}/{project}/_git/{repo}
//	https://{org}.visualstudio.com/{project}/_git/{repo}
//	git@ssh.dev.azure.com:v3/{org}/{project}/{repo}
func ParseRemote(raw string) (Remote, bool) {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "git@ssh.dev.azure.com:v3/"); ok {
		parts := strings.Split(rest, "/")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Remote{}, false
		}
		return Remote{
			OrgURL:     "https://dev.azure.com/" + parts[0],
			Project:    unescape(parts[1]),
			Repository: unescape(strings.TrimSuffix(parts[2], ".git")),
		}, true
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return Remote{}, false
	}
	segments := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")

	var org string
	switch {
	case u.Host == "dev.azure.com":
		if len(segments) < 1 {
			return Remote{}, false
		}
		org, segments = segments[0], segments[1:]
		org = "https://dev.azure.com/" + org
	case strings.HasSuffix(u.Host, ".visualstudio.com"):
		org = "https://" + u.Host
	default:
		return Remote{}, false
	}

	// {project}/_git/{repo}, or _git/{repo} when the repo is named after the project.
	switch {
	case len(segments) == 3 && segments[1] == "_git":
		return Remote{OrgURL: org, Project: unescape(segments[0]), Repository: unescape(segments[2])}, true
	case len(segments) == 2 && segments[0] == "_git":
		return Remote{OrgURL: org, Project: unescape(segments[1]), Repository: unescape(segments[1])}, true
	default:
		return Remote{}, false
	}
}

func unescape(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
