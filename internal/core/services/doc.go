// Package services implements the driving port interfaces.
// Services contain the core pipeline logic - batching, upload sessions,
// run planning and orchestration - and call out through driven ports.
//
// Services are pure Go with no I/O of their own; all network and storage
// access goes through the driven ports.
package services
