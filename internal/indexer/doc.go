// Package indexer discovers library files and keeps the sample index in
// step with the sequencing share.
//
// Discovery runs in two stages:
//   - [Scanner] looks at most three levels below the root
//     (root/batch/sample/flowcell) and returns the directories likely to
//     hold library files. In staleness mode only subtrees modified within
//     the window are returned.
//   - [ParallelWalker] walks each candidate directory recursively on a
//     bounded worker pool and collects the files matching the pattern.
//
// [Indexer] runs build and refresh cycles through the IDLE, SCAN, DIFF and
// PERSIST states, delegating the diff and the atomic write to the store.
// Only one cycle runs at a time per process.
//
// [Scheduler] drives refresh cycles on a fixed polling tick in daemon mode,
// or a single full refresh in forced mode. Faults in one scheduled cycle are
// logged and the next tick proceeds as usual.
//
// Blacklisted directories and symlinked directories are never descended
// into. Unreadable or vanished directories are skipped and counted.
package indexer
