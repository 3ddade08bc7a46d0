package chain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cur8/internal/types"
)

var ErrInvalidPostRef = errors.New("invalid post reference")

// Domain returns the front-end used to link posts of platform.
func Domain(platform types.Platform) string {
	if platform == types.PlatformHive {
		return "https://peakd.com"
	}
	return "https://steemit.com"
}

// PostURL links a post on its platform front-end.
func PostURL(platform types.Platform, author, permlink string) string {
	return fmt.Sprintf("%s/@%s/%s", Domain(platform), author, permlink)
}

// ViewURL links a post on the cur8 reader.
func ViewURL(author, permlink string) string {
	return fmt.Sprintf("https://cur8.fun/#/@%s/%s", author, permlink)
}

// ParsePostRef accepts "@author/permlink", "author/permlink" or any URL
// whose path ends in /@author/permlink and returns author and permlink.
func ParsePostRef(ref string) (author, permlink string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", ErrInvalidPostRef
	}
	path := ref
	if u, perr := url.Parse(ref); perr == nil && u.Host != "" {
		path = u.Path
		if u.Fragment != "" {
			path = u.Fragment
		}
	}
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "@"); i >= 0 {
		path = path[i+1:]
	}
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPostRef, ref)
	}
	return parts[0], parts[1], nil
}

// hostPlatforms maps front-end hosts to the chain they serve.
var hostPlatforms = map[string]types.Platform{
	"steemit.com":    types.PlatformSteem,
	"steemworld.org": types.PlatformSteem,
	"peakd.com":      types.PlatformHive,
	"hive.blog":      types.PlatformHive,
	"ecency.com":     types.PlatformHive,
}

// PlatformOfURL infers the chain from the host of a post URL. Bare
// references and unknown hosts report false.
func PlatformOfURL(ref string) (types.Platform, bool) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	p, ok := hostPlatforms[host]
	return p, ok
}

// CanonicalPostURL turns any accepted post reference into the platform URL
// the voters endpoint expects. A URL from a known front-end keeps its chain;
// anything else is resolved against platform.
func CanonicalPostURL(platform types.Platform, ref string) (string, error) {
	author, permlink, err := ParsePostRef(ref)
	if err != nil {
		return "", err
	}
	if p, ok := PlatformOfURL(ref); ok {
		platform = p
	}
	return PostURL(platform, author, permlink), nil
}
