// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that behaves like the real store
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for inspecting state directly
//
// # Usage Example
//
//	func TestMyService(t *testing.T) {
//		store := mocks.NewBenchmarkStore()
//		store.SaveSummaryFn = func(context.Context, string, domain.Summary) error {
//			return errors.New("disk full")
//		}
//
//		svc := bench.NewService(store, ...)
//		// ... test service behavior
//	}
//
// # Available Mocks
//
//   - BenchmarkStore: implements ports.BenchmarkStore
package mocks
