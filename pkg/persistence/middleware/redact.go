package middleware

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultRedactPatterns match variable names that usually carry credentials.
var DefaultRedactPatterns = []string{`(?i)token`, `(?i)secret`, `(?i)passw(or)?d`}

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks the value of KEY=VALUE command arguments (including
// -DKEY=VALUE cache entries) whose KEY matches one of the patterns.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	// Clone so the caller's record keeps the real arguments.
	cloned := *record
	cloned.Stages = make([]domain.StageResult, len(record.Stages))
	for i, s := range record.Stages {
		s.Command.Args = m.maskArgs(s.Command.Args)
		cloned.Stages[i] = s
	}
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]*domain.RunRecord, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) maskArgs(args []string) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg
		key, _, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		key = strings.TrimLeft(key, "-")
		key = strings.TrimPrefix(key, "D")
		if name, _, typed := strings.Cut(key, ":"); typed {
			key = name // -DVAR:STRING=value
		}
		for _, re := range m.patterns {
			if re.MatchString(key) {
				out[i] = arg[:strings.IndexByte(arg, '=')+1] + Mask
				break
			}
		}
	}
	return out
}
