package middleware

import (
	"context"
	"fmt"
	"maps"
	"regexp"

	"github.com/aretw0/conduit/pkg/domain"
	"github.com/aretw0/conduit/pkg/ports"
)

const mask = "***"

type redactMiddleware struct {
	next     ports.ReportStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks every match of the
// patterns in rendered stacks before they are stored. Useful when the
// environment carries real addresses.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.ReportStore) ports.ReportStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, report *domain.Report) error {
	// the caller keeps using its report, so mask a copy
	cloned := *report
	cloned.Visits = maps.Clone(report.Visits)
	cloned.Terminals = m.maskPaths(report.Terminals)
	cloned.Failures = m.maskPaths(report.Failures)
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, id string) (*domain.Report, error) {
	return m.next.Load(ctx, id)
}

func (m *redactMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) maskPaths(in []domain.PathResult) []domain.PathResult {
	if in == nil {
		return nil
	}
	out := make([]domain.PathResult, len(in))
	for i, p := range in {
		out[i] = domain.PathResult{
			Path: append([]int(nil), p.Path...),
			Node: p.Node,
			Top:  m.maskString(p.Top),
		}
		if p.Stack != nil {
			out[i].Stack = make([]string, len(p.Stack))
			for j, s := range p.Stack {
				out[i].Stack[j] = m.maskString(s)
			}
		}
	}
	return out
}

func (m *redactMiddleware) maskString(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, mask)
	}
	return s
}
