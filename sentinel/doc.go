// Package sentinel tracks outstanding asynchronous operations per
// guarded resource, so a resource is never torn down while work
// referencing it is still in flight.
//
// A Directory maps resource identities to Sentinels. Work scheduled
// against a resource registers its job handle on the sentinel; before
// the resource is destroyed, CompleteClear (or Directory.Remove) blocks
// until every registered operation has finished:
//
//	dir := sentinel.NewDirectory(sched)
//	s, _ := dir.GetOrCreate(id, kindTexture, tex)
//	s.AddJob(sched.Schedule(upload))
//	...
//	dir.Remove(id) // blocks until the upload is done
//
// Check drains completed operations lazily and can fold the remainder
// into a single combined dependency for callers that chain new work
// after everything currently in flight.
//
// No completion order is promised within a sentinel, and nothing is
// promised across distinct identities; the only guarantee is that the
// drain calls return with the outstanding set empty.
package sentinel
