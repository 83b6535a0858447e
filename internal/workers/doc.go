/*
Package workers resolves the size of the bounded worker pool shared by the
tree scanner, the parallel walker and the existence checks.

# Sizing

Every task in those pools spends nearly all of its time blocked on network
filesystem calls, so the pool size is a politeness limit toward the file
server rather than a function of local CPUs. The default is 10 concurrent
directory tasks.

# Precedence

	workers.Resolve(16) // 16: explicit request from --thread
	workers.Resolve(0)  // FQINDEX_WORKERS if set and positive, else 10

Values above MaxCount are capped.
*/
package workers
