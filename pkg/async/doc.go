// Package async provides a minimal future primitive for request-scoped
// background work.
//
// It backs the two credential refresh modes of the edge layer: a detached
// refresh that is started and never awaited, and a synchronous refresh
// raced against a fixed timeout with AwaitWithTimeout. A timed-out wait
// abandons the consumer side only; the in-flight call is free to finish
// and mutate shared state afterwards.
package async
