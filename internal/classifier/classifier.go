// Package classifier identifies AI-crawler traffic by User-Agent so the
// gateway knows which requests to gate behind a payment challenge.
package classifier

import "regexp"

// defaultPatterns is the closed set of known AI and indexing crawlers.
// Matching is always case-insensitive; callers never need to care about
// casing in a request's User-Agent header.
var defaultPatterns = []string{
	`GPTBot`,
	`ChatGPT-User`,
	`Claude-Web`,
	`anthropic-ai`,
	`Claude`,
	`PerplexityBot`,
	`CCBot`,
	`Google-Extended`,
	`Bingbot`,
	`YandexBot`,
	`Baiduspider`,
	`Meta-ExternalAgent`,
	`facebookexternalhit`,
}

// Classifier matches a User-Agent string against a compiled, configurable
// pattern set. It is built once at startup; compiling is never done
// per-request.
type Classifier struct {
	patterns []*regexp.Regexp
}

// New compiles the given patterns (case-insensitive). An empty or nil
// slice falls back to the built-in default set, satisfying the
// configuration-surface requirement that the pattern list be replaceable
// without a code change while still having sane defaults.
func New(patterns []string) (*Classifier, error) {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	c := &Classifier{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// IsAICrawler reports whether ua matches any compiled crawler pattern.
func (c *Classifier) IsAICrawler(ua string) bool {
	for _, re := range c.patterns {
		if re.MatchString(ua) {
			return true
		}
	}
	return false
}
