// Package install provisions drivers and app packages into an offline image.
//
// Units are installed one at a time through a Servicer in three batches:
// driver packages, framework packages, then applications. Each unit is
// attempted up to RetryPolicy.MaxAttempts times. A unit that still fails
// aborts its batch and the rest of the run.
package install
