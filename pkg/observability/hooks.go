// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic. Consumers register hooks
// at startup to receive events about conversions and store calls; libraries
// emit events through the registry and never import a metrics framework.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetConversionHooks(&myConversionHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Conversion().OnImportStart(ctx, tokenCount)
//	// ... materialize ...
//	observability.Conversion().OnImportComplete(ctx, created, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Conversion Hooks
// =============================================================================

// ConversionHooks receives events from imports and exports.
type ConversionHooks interface {
	// Import events
	OnImportStart(ctx context.Context, tokens int)
	OnImportComplete(ctx context.Context, created int, duration time.Duration, err error)

	// OnRound records one alias resolution round.
	OnRound(ctx context.Context, round, created, deferred int)

	// Export events
	OnExportStart(ctx context.Context)
	OnExportComplete(ctx context.Context, tokens int, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from variable store calls.
type StoreHooks interface {
	// OnStoreCall records one call, e.g. "CreateEntry".
	OnStoreCall(ctx context.Context, op string, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopConversionHooks is a no-op implementation of ConversionHooks.
type NoopConversionHooks struct{}

func (NoopConversionHooks) OnImportStart(context.Context, int)                          {}
func (NoopConversionHooks) OnImportComplete(context.Context, int, time.Duration, error) {}
func (NoopConversionHooks) OnRound(context.Context, int, int, int)                      {}
func (NoopConversionHooks) OnExportStart(context.Context)                               {}
func (NoopConversionHooks) OnExportComplete(context.Context, int, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreCall(context.Context, string, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	conversionHooks ConversionHooks = NoopConversionHooks{}
	storeHooks      StoreHooks      = NoopStoreHooks{}
	hooksMu         sync.RWMutex
)

// SetConversionHooks registers custom conversion hooks.
// This should be called once at application startup.
func SetConversionHooks(h ConversionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		conversionHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Conversion returns the registered conversion hooks.
func Conversion() ConversionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return conversionHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	conversionHooks = NoopConversionHooks{}
	storeHooks = NoopStoreHooks{}
}
