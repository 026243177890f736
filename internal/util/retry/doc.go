// Package retry provides retry logic for operations against slow or flaky
// remote systems.
//
// [WithExponentialBackoff] retries an operation with configurable max
// attempts, initial delay, and maximum delay. [WithFixedDelay] turns the same
// loop into a fixed-interval poll, which is how workspace readiness is
// awaited: the provider offers no push notification and boot time varies.
package retry
