// Package credentials resolves secret values by probing ranked sources.
//
// For a (group, key) pair the sources are consulted in a fixed order and the
// first non-empty value wins:
//
//  1. environment variable {group}_{key}
//  2. environment variable {GROUP}_{KEY}
//  3. environment variable {Group}_{Key}
//  4. file cred/{group}/{group}_{key} under each base directory
//  5. an optional SecretStore (disabled unless configured)
//  6. the caller-supplied default
//
// Nothing is cached: every call re-reads all sources. Resolution only runs
// while assembling configuration at startup.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"budgettool/src/core/domain"
)

// Source identifies where a secret came from. Diagnostics only.
type Source string

const (
	SourceEnvExact       Source = "env-exact"
	SourceEnvUpper       Source = "env-upper"
	SourceEnvCapitalized Source = "env-capitalized"
	SourceFile           Source = "file"
	SourceSecretStore    Source = "secret-store"
	SourceDefault        Source = "default"
)

// Secret is a resolved value plus the source that produced it.
type Secret struct {
	Value  string
	Source Source
}

// String hides the value so a Secret can be logged safely.
func (s Secret) String() string {
	return fmt.Sprintf("<redacted from %s>", s.Source)
}

// SecretStore is an external secret backend consulted after the filesystem.
// Lookup returns an empty string and a nil error when the key is absent.
type SecretStore interface {
	Lookup(ctx context.Context, group, key string) (string, error)
}

// DefaultBaseDirs are the directories searched for cred/ trees: the working
// directory first, then the filesystem root.
var DefaultBaseDirs = []string{"", "/"}

// Resolver turns (group, key) pairs into secret values.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	readFile  func(string) ([]byte, error)
	baseDirs  []string
	store     SecretStore
	log       *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseDirs replaces the directories searched for credential files.
func WithBaseDirs(dirs ...string) Option {
	return func(r *Resolver) {
		r.baseDirs = dirs
	}
}

// WithSecretStore enables the secret store source.
func WithSecretStore(store SecretStore) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// WithEnv replaces the environment lookup, mainly for tests.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) {
		r.lookupEnv = lookup
	}
}

// New creates a Resolver reading the process environment and filesystem.
func New(log *slog.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Resolver{
		lookupEnv: os.LookupEnv,
		readFile:  os.ReadFile,
		baseDirs:  DefaultBaseDirs,
		log:       log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the secret for group/key or a *domain.MissingCredentialError.
func (r *Resolver) Resolve(ctx context.Context, group, key string) (Secret, error) {
	return r.ResolveOr(ctx, group, key, "")
}

// ResolveOr is Resolve with a fallback. An empty default means no default.
func (r *Resolver) ResolveOr(ctx context.Context, group, key, def string) (Secret, error) {
	if v, src, ok := r.fromEnv(group, key); ok {
		return r.found(group, key, v, src), nil
	}

	if v, ok := r.fromFile(group, key); ok {
		return r.found(group, key, v, SourceFile), nil
	}

	if r.store != nil {
		v, err := r.store.Lookup(ctx, group, key)
		if err != nil {
			return Secret{}, fmt.Errorf("secret store lookup %s/%s: %w", group, key, err)
		}
		if v != "" {
			return r.found(group, key, v, SourceSecretStore), nil
		}
	}

	if def != "" {
		return r.found(group, key, def, SourceDefault), nil
	}

	return Secret{}, &domain.MissingCredentialError{Group: group, Key: key}
}

// Value is a convenience wrapper returning only the resolved string.
func (r *Resolver) Value(ctx context.Context, group, key string) (string, error) {
	s, err := r.Resolve(ctx, group, key)
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *Resolver) found(group, key, value string, src Source) Secret {
	r.log.Debug("credential resolved", "group", group, "key", key, "source", string(src))
	return Secret{Value: value, Source: src}
}

// EnvNames returns the three variable names checked for group/key, in order.
func EnvNames(group, key string) [3]string {
	return [3]string{
		group + "_" + key,
		strings.ToUpper(group) + "_" + strings.ToUpper(key),
		capitalize(group) + "_" + capitalize(key),
	}
}

// FilePath returns the credential file path for group/key below base.
func FilePath(base, group, key string) string {
	return filepath.Join(base, "cred", group, group+"_"+key)
}

func (r *Resolver) fromEnv(group, key string) (string, Source, bool) {
	sources := [3]Source{SourceEnvExact, SourceEnvUpper, SourceEnvCapitalized}
	for i, name := range EnvNames(group, key) {
		if v, ok := r.lookupEnv(name); ok && v != "" {
			return v, sources[i], true
		}
	}
	return "", "", false
}

func (r *Resolver) fromFile(group, key string) (string, bool) {
	for _, base := range r.baseDirs {
		path := FilePath(base, group, key)
		data, err := r.readFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				r.log.Warn("credential file unreadable", "path", path, "error", err)
			}
			continue
		}
		if !utf8.Valid(data) {
			r.log.Warn("credential file is not valid UTF-8", "path", path)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, true
		}
	}
	return "", false
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	r, size := utf8.DecodeRuneInString(lower)
	return strings.ToUpper(string(r)) + lower[size:]
}
