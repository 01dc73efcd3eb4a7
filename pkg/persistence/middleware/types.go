package middleware

import "github.com/aretw0/keyseq/pkg/ports"

// Middleware allows wrapping a SequenceStore to add behavior.
type Middleware func(ports.SequenceStore) ports.SequenceStore

// Chain wraps store with every middleware, the first one outermost.
func Chain(store ports.SequenceStore, mws ...Middleware) ports.SequenceStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
