package review

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedRemote is returned for remote URLs that do not name an
// owner/repo pair.
var ErrUnsupportedRemote = errors.New("unsupported remote URL")

// ParseRemote extracts owner and repository from a remote URL. Supported
// forms:
//   - https://github.com/owner/repo.git (credentials allowed)
//   - git@github.com:owner/repo.git
//   - ssh://git@github.com/owner/repo.git
//
// The .git suffix is optional in all of them.
func ParseRemote(remoteURL string) (owner, repo string, err error) {
	remoteURL = strings.TrimSpace(remoteURL)

	var path string
	switch {
	case strings.Contains(remoteURL, "://"):
		u, perr := url.Parse(remoteURL)
		if perr != nil || u.Host == "" {
			return "", "", fmt.Errorf("%w: %s", ErrUnsupportedRemote, remoteURL)
		}
		switch u.Scheme {
		case "https", "http", "ssh", "git":
		default:
			return "", "", fmt.Errorf("%w: %s", ErrUnsupportedRemote, remoteURL)
		}
		path = u.Path
	default:
		// scp-like syntax: [user@]host:owner/repo
		at := strings.Index(remoteURL, "@")
		colon := strings.Index(remoteURL, ":")
		if colon <= at+1 {
			return "", "", fmt.Errorf("%w: %s", ErrUnsupportedRemote, remoteURL)
		}
		path = remoteURL[colon+1:]
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedRemote, remoteURL)
	}
	return parts[0], parts[1], nil
}
