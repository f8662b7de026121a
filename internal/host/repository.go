package host

import (
	"fmt"
	"regexp"
	"strings"
)

// remotePattern matches https, ssh and scp-style remote URLs and captures owner and name.
var remotePattern = regexp.MustCompile(`^(?:https?://|ssh://|git://)?(?:[^@/]+@)?[^/:]+[/:]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRepository splits "owner/name" or a git remote URL into owner and name.
func ParseRepository(s string) (owner, name string, err error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, "/"); len(parts) == 2 && !strings.Contains(s, ":") {
		if parts[0] != "" && parts[1] != "" {
			return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
		}
	}

	m := remotePattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", fmt.Errorf("cannot determine repository from %q", s)
	}
	return m[1], m[2], nil
}
