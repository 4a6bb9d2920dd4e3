// Package job defines the boundary to the host's asynchronous task
// scheduler: an opaque Handle per operation and a Scheduler that starts
// and combines them. GoScheduler is the goroutine-backed implementation
// used when no external scheduler is plugged in.
package job
