package brandmatch

import (
	"regexp"
	"strings"

	"BrandPulse/pkg/config"
)

// Matcher decides whether free text (campaign names, search queries) refers
// to a brand. Allow terms and deny terms are matched case-insensitively on
// word boundaries, deny winning over allow.
type Matcher struct {
	name  string
	allow []*regexp.Regexp
	deny  []*regexp.Regexp
}

func New(name string, matchTerms, excludeTerms []string) *Matcher {
	terms := matchTerms
	if len(terms) == 0 {
		terms = []string{name}
	}
	m := &Matcher{name: name}
	for _, t := range terms {
		if re := compileTerm(t); re != nil {
			m.allow = append(m.allow, re)
		}
	}
	for _, t := range excludeTerms {
		if re := compileTerm(t); re != nil {
			m.deny = append(m.deny, re)
		}
	}
	return m
}

func compileTerm(t string) *regexp.Regexp {
	t = strings.TrimSpace(strings.ToLower(t))
	if t == "" {
		return nil
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(t) + `\b`)
	if err != nil {
		return nil
	}
	return re
}

func (m *Matcher) Name() string { return m.name }

// Match reports whether text refers to the brand.
func (m *Matcher) Match(text string) bool {
	s := strings.ToLower(text)
	for _, re := range m.deny {
		if re.MatchString(s) {
			return false
		}
	}
	for _, re := range m.allow {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Registry holds one matcher per configured brand. Unconfigured brands fall
// back to matching the brand name itself.
type Registry struct {
	byName map[string]*Matcher
}

func NewRegistry(brands []config.BrandTerms) *Registry {
	r := &Registry{byName: make(map[string]*Matcher, len(brands))}
	for _, b := range brands {
		r.byName[strings.ToLower(b.Name)] = New(b.Name, b.MatchTerms, b.ExcludeTerms)
	}
	return r
}

func (r *Registry) For(brand string) *Matcher {
	if m, ok := r.byName[strings.ToLower(brand)]; ok {
		return m
	}
	return New(brand, nil, nil)
}
