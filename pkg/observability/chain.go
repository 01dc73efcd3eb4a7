package observability

import (
	"context"

	"github.com/aretw0/keyseq/pkg/domain"
)

// Chain combines several hook sets into one that calls each in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.HooksFunc(func(ctx context.Context, e *domain.Event) {
		for _, h := range hooks {
			h.Fire(ctx, e)
		}
	})
}
