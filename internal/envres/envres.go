// Package envres resolves environment templates into literal variable
// mappings, expanding placeholder tokens that may reference another
// service's deployed environment or gateway URL.
//
// Resolution is a two-phase interpreter: first every value is parsed into
// a typed token list, then tokens are evaluated kind by kind against
// prefetched cross-service data. Generative tokens ($RANDOM, $PRIVATE_KEY)
// are evaluated at most once per variable and reuse the value read back
// from the service's own previous deployment when one exists.
package envres

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Template is the declared environment of one service: clear-text values
// plus secret values, both subject to token expansion. Secrets win on key
// collision.
type Template struct {
	Clear  map[string]string
	Secret map[string]string
}

// Resolver supplies cross-service data: the fully resolved environment of
// an already-deployed service, and its public base URL. It is injected by
// the caller; the engine never talks to the platform directly.
type Resolver interface {
	Environment(ctx context.Context, service string) (map[string]string, error)
	BaseURL(ctx context.Context, service string) (string, error)
}

// Engine resolves one service's template per run.
type Engine struct {
	// Env is the deployment environment name ($ENV).
	Env string

	// Service is the service being resolved ($SERVICE).
	Service string

	// Prior is the service's own previously deployed environment, read
	// back from the remote function. Generative tokens reuse values from
	// here so that resyncs are stable.
	Prior map[string]string

	Resolver Resolver
	Log      *zap.Logger
}

// Resolve expands every token in tpl and returns the final variable
// mapping. Referencing a missing cross-service key or base URL is a
// terminal error naming the missing service and key.
func (e *Engine) Resolve(ctx context.Context, tpl Template) (map[string]string, error) {
	working := make(map[string]string, len(tpl.Clear)+len(tpl.Secret))
	for k, v := range tpl.Clear {
		working[k] = v
	}
	for k, v := range tpl.Secret {
		working[k] = v
	}

	tokens := parse(working)

	environments, urls, err := e.prefetch(ctx, tokens)
	if err != nil {
		return nil, err
	}

	// First pass: everything except self-referencing tokens, which need the
	// in-progress map to be complete.
	generated := map[string]string{}
	var deferred []token
	for _, t := range tokens {
		if t.selfReferencing(e.Service) {
			deferred = append(deferred, t)
			continue
		}
		value, err := e.evaluate(t, environments, urls, generated, nil)
		if err != nil {
			return nil, err
		}
		working[t.key] = strings.Replace(working[t.key], t.text, value, 1)
	}

	// Second pass: self-referencing tokens read from the just-computed map.
	for _, t := range deferred {
		value, err := e.evaluate(t, environments, urls, generated, working)
		if err != nil {
			return nil, err
		}
		working[t.key] = strings.Replace(working[t.key], t.text, value, 1)
	}

	return working, nil
}

// prefetch concurrently fetches the resolved environment and base URL of
// every distinct referenced service.
func (e *Engine) prefetch(ctx context.Context, tokens []token) (map[string]map[string]string, map[string]string, error) {
	envServices := map[string]bool{}
	urlServices := map[string]bool{}
	for _, t := range tokens {
		if t.selfReferencing(e.Service) {
			continue
		}
		switch t.kind {
		case kindSameAs, kindPublicKey:
			envServices[t.service] = true
		case kindURL:
			urlServices[t.service] = true
		}
	}

	environments := make(map[string]map[string]string, len(envServices))
	urls := make(map[string]string, len(urlServices))

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for service := range envServices {
		service := service
		g.Go(func() error {
			env, err := e.Resolver.Environment(gctx, service)
			if err != nil {
				return err
			}
			mu.Lock()
			environments[service] = env
			mu.Unlock()
			return nil
		})
	}
	for service := range urlServices {
		service := service
		g.Go(func() error {
			url, err := e.Resolver.BaseURL(gctx, service)
			if err != nil {
				return err
			}
			mu.Lock()
			urls[service] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return environments, urls, nil
}

// evaluate produces the expansion of one token. When inProgress is non-nil
// the token is self-referencing and reads from it instead of the
// prefetched data.
func (e *Engine) evaluate(t token, environments map[string]map[string]string, urls map[string]string, generated map[string]string, inProgress map[string]string) (string, error) {
	switch t.kind {
	case kindEnv:
		return e.Env, nil
	case kindService:
		return e.Service, nil

	case kindRandom, kindPrivateKey:
		// At most one generation per variable; a value already deployed
		// under this key is reused so resyncs do not churn the function.
		if v, ok := generated[t.key]; ok {
			return v, nil
		}
		if t.whole {
			if prior, ok := e.Prior[t.key]; ok && prior != "" {
				generated[t.key] = prior
				return prior, nil
			}
		}
		var value string
		var err error
		if t.kind == kindRandom {
			value, err = RandomHex(t.bits)
		} else {
			value, err = GeneratePrivateKey(t.curve)
		}
		if err != nil {
			return "", err
		}
		if e.Log != nil {
			e.Log.Debug("Generated environment value.", zap.String("key", t.key))
		}
		generated[t.key] = value
		return value, nil

	case kindSameAs:
		source := inProgress
		if source == nil {
			source = environments[t.service]
		}
		value, ok := source[t.ref]
		if !ok || value == "" {
			return "", &MissingKeyError{Service: t.service, Key: t.ref}
		}
		return value, nil

	case kindPublicKey:
		source := inProgress
		if source == nil {
			source = environments[t.service]
		}
		private, ok := source[t.ref]
		if !ok || private == "" {
			return "", &MissingKeyError{Service: t.service, Key: t.ref}
		}
		return DerivePublicKey(private)

	case kindURL:
		url, ok := urls[t.service]
		if !ok || url == "" {
			return "", &MissingURLError{Service: t.service}
		}
		return url, nil
	}
	return "", nil
}
