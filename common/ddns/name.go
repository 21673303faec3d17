package ddns

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Root marks the apex of a registered domain.
const Root = "@"

// SplitName decomposes a fully qualified name into the labels below the
// registered domain and the registered domain itself, using the public suffix list.
// "foo.example.com" gives ("foo", "example.com") and "example.com" gives ("", "example.com").
// A wildcard "*" subdomain is normalized to Root.
func SplitName(name string) (sub string, domain string, err error) {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	if name == "" {
		return "", "", fmt.Errorf("empty DNS name")
	}

	domain, err = publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", "", fmt.Errorf("split %s: %w", name, err)
	}

	if name != domain {
		sub = strings.TrimSuffix(name, "."+domain)
	}
	if sub == "*" {
		sub = Root
	}
	return sub, domain, nil
}

// RecordName joins sub and domain back into the name a record is stored under.
func RecordName(sub string, domain string) string {
	if sub == "" || sub == Root {
		return domain
	}
	return sub + "." + domain
}
