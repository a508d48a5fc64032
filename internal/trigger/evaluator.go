// Package trigger decides whether a completed build should notify RunDeck.
package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckhand-ci/deckhand/pkg/types"
)

// UpstreamResolver resolves an upstream-cause reference to a build record.
// A false return means the project or build no longer exists, which is a
// silent skip, not an error.
type UpstreamResolver interface {
	ResolveUpstream(ctx context.Context, project string, number int) (*types.Build, bool)
}

// UpstreamResolverFunc adapts a function to the UpstreamResolver interface.
type UpstreamResolverFunc func(ctx context.Context, project string, number int) (*types.Build, bool)

// ResolveUpstream calls f.
func (f UpstreamResolverFunc) ResolveUpstream(ctx context.Context, project string, number int) (*types.Build, bool) {
	return f(ctx, project, number)
}

// Evaluator is a pure predicate over a build, its change history and its
// direct upstream causes. It never mutates build state.
type Evaluator struct {
	resolver UpstreamResolver
}

// NewEvaluator creates an Evaluator. resolver may be nil, in which case
// upstream causes are never matched.
func NewEvaluator(resolver UpstreamResolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// ShouldNotify reports whether the build should notify RunDeck, and a
// human-readable reason for the build log. A blank tag always notifies.
// Otherwise the tag must appear as a case-insensitive substring in the
// build's own changelog or in the changelog of a directly referenced
// upstream build. The walk is one level deep: upstream builds' own causes
// are not followed.
func (e *Evaluator) ShouldNotify(ctx context.Context, build *types.Build, tag string) (bool, string) {
	if strings.TrimSpace(tag) == "" {
		return true, "no tag configured, notifying"
	}

	if entry, ok := matchChangeLog(build.ChangeLog, tag); ok {
		return true, fmt.Sprintf("found %q in changelog (from %s)", tag, entry.AuthorID)
	}

	for _, cause := range build.Causes {
		if cause.Kind != types.CauseUpstream {
			continue
		}
		if e.resolver == nil {
			continue
		}
		upstream, ok := e.resolver.ResolveUpstream(ctx, cause.UpstreamProject, cause.UpstreamBuild)
		if !ok {
			// Project deleted or build pruned: skip the cause.
			continue
		}
		if entry, ok := matchChangeLog(upstream.ChangeLog, tag); ok {
			return true, fmt.Sprintf("found %q in changelog (from %s) in upstream build %s #%d",
				tag, entry.AuthorID, upstream.Project, upstream.Number)
		}
	}

	return false, fmt.Sprintf("tag %q not found in changelog or upstream changelogs", tag)
}

// matchChangeLog scans entries in order and returns the first one whose
// message contains tag, case-insensitively.
func matchChangeLog(entries []types.ChangeLogEntry, tag string) (types.ChangeLogEntry, bool) {
	needle := strings.ToLower(tag)
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Message), needle) {
			return entry, true
		}
	}
	return types.ChangeLogEntry{}, false
}
