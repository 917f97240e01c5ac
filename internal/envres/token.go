package envres

import (
	"regexp"
	"sort"
	"strconv"
)

type kind int

// Token kinds, in evaluation order. The order is fixed so that every kind's
// pattern is applied across the whole map before the next kind runs.
const (
	kindEnv kind = iota
	kindService
	kindRandom
	kindPrivateKey
	kindSameAs
	kindPublicKey
	kindURL
)

// token is one parsed placeholder occurrence: where it sits, what it is and
// what it takes. Parsing and evaluation are separate phases so generative
// tokens run exactly once regardless of scan order.
type token struct {
	key   string // variable the token occurs in
	text  string // exact matched placeholder text
	whole bool   // the template value is exactly this token
	kind  kind

	service string // SameAs, PublicKey, URL
	ref     string // referenced variable for SameAs and PublicKey
	bits    int    // Random
	curve   string // PrivateKey
}

var (
	envPattern        = regexp.MustCompile(`\$ENV\b`)
	servicePattern    = regexp.MustCompile(`\$SERVICE\b`)
	randomPattern     = regexp.MustCompile(`\$RANDOM\((\d+)\)`)
	privateKeyPattern = regexp.MustCompile(`\$PRIVATE_KEY\((ed25519|x25519)\)`)
	sameAsPattern     = regexp.MustCompile(`\$SAME_AS\(([\w-]+)\s*,\s*(\w+)\)`)
	publicKeyPattern  = regexp.MustCompile(`\$PUBLIC_KEY\(([\w-]+)\s*,\s*(\w+)\)`)
	urlPattern        = regexp.MustCompile(`\$URL\(([\w-]+)\)`)
)

// parse extracts every token from every value, one kind at a time, keys in
// sorted order within a kind. The resulting list order is the evaluation
// order.
func parse(values map[string]string) []token {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokens []token
	appendMatches := func(k kind, pattern *regexp.Regexp, build func(m []string) token) {
		for _, key := range keys {
			value := values[key]
			for _, m := range pattern.FindAllStringSubmatch(value, -1) {
				t := build(m)
				t.key = key
				t.text = m[0]
				t.whole = value == m[0]
				t.kind = k
				tokens = append(tokens, t)
			}
		}
	}

	appendMatches(kindEnv, envPattern, func(m []string) token { return token{} })
	appendMatches(kindService, servicePattern, func(m []string) token { return token{} })
	appendMatches(kindRandom, randomPattern, func(m []string) token {
		bits, _ := strconv.Atoi(m[1])
		return token{bits: bits}
	})
	appendMatches(kindPrivateKey, privateKeyPattern, func(m []string) token { return token{curve: m[1]} })
	appendMatches(kindSameAs, sameAsPattern, func(m []string) token { return token{service: m[1], ref: m[2]} })
	appendMatches(kindPublicKey, publicKeyPattern, func(m []string) token { return token{service: m[1], ref: m[2]} })
	appendMatches(kindURL, urlPattern, func(m []string) token { return token{service: m[1]} })

	return tokens
}

// selfReferencing reports whether the token reads from this same service's
// environment, which defers its evaluation to the final pass.
func (t token) selfReferencing(service string) bool {
	return (t.kind == kindSameAs || t.kind == kindPublicKey) && t.service == service
}
