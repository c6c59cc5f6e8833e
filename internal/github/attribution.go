package github

import (
	"context"
	"log/slog"
	"regexp"
	"sort"

	"github.com/samber/lo"
)

// serviceTopicRe matches topics of the form service-<name> where <name> is
// lowercase letters, digits and hyphens. Topics claiming the prefix with
// other characters are treated as non-matching rather than an error, so one
// bad topic cannot abort a run.
var serviceTopicRe = regexp.MustCompile(`^service-([a-z0-9-]+)$`)

// ResolveService returns the service a repository's costs are attributed to:
// the name carried by a service-* topic, or the repository name when no topic
// matches. When several topics match, the lexicographically first name wins,
// so repeated runs always resolve the same way.
func ResolveService(topics []string, repoName string) string {
	names := lo.FilterMap(topics, func(t string, _ int) (string, bool) {
		m := serviceTopicRe.FindStringSubmatch(t)
		if m == nil {
			return "", false
		}
		return m[1], true
	})
	if len(names) == 0 {
		return repoName
	}
	sort.Strings(names)
	return names[0]
}

type topicsFetcher interface {
	RepositoryTopics(ctx context.Context, repo string) ([]string, error)
}

// Attribution resolves repository service names, fetching each repository's
// topics at most once per run. Nothing is persisted across runs.
type Attribution struct {
	fetcher topicsFetcher
	cache   map[string]string
}

func NewAttribution(f topicsFetcher) *Attribution {
	return &Attribution{fetcher: f, cache: make(map[string]string)}
}

// Service returns the attributed service name for repo. A topics fetch
// failure falls back to the repository name; one unreadable repository should
// not fail the whole run.
func (a *Attribution) Service(ctx context.Context, repo string) string {
	if svc, ok := a.cache[repo]; ok {
		return svc
	}

	topics, err := a.fetcher.RepositoryTopics(ctx, repo)
	if err != nil {
		slog.Warn("failed to fetch repository topics, using repository name", "repository", repo, "error", err)
		a.cache[repo] = repo
		return repo
	}

	svc := ResolveService(topics, repo)
	if svc != repo {
		slog.Info("repository has service topic", "repository", repo, "service", svc)
	} else {
		slog.Debug("repository has no service topic, using repository name", "repository", repo)
	}
	a.cache[repo] = svc
	return svc
}
