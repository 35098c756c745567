package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/linkedin"
)

type dedupeFilter struct {
	disabled bool
	reason   string
}

// NewDedupe creates a filter that keeps only the first occurrence of each
// listing. The same job shows up once per work-type query.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *dedupeFilter) IsEnabled() bool { return !f.disabled }

func (f *dedupeFilter) Validate(*Config) error { return nil }

func (f *dedupeFilter) Apply(_ context.Context, deps Deps, l *linkedin.Listings) (*linkedin.Listings, Step, error) {
	initial := l.Len()
	seen := make(map[string]struct{}, initial)
	var dropped []string
	for i := 0; i < len(l.Items); {
		key := l.Items[i].ID
		if key == "" {
			key = l.Items[i].Link
		}
		if _, ok := seen[key]; ok {
			dropped = append(dropped, key)
			l.RemoveByIndex(i)
			continue
		}
		seen[key] = struct{}{}
		i++
	}

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("dropping duplicate listings",
			zap.Strings("duplicates", dropped),
			zap.Int("listings_left", l.Len()),
		)
	}

	return l, Step{Initial: initial, Dropped: len(dropped), Left: l.Len()}, nil
}

func (f *dedupeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
