// Package restorer restores a backup image from an object store into a
// local file.
//
// A restore runs in a single goroutine:
//
//	derive the backup root from the manifest name
//	fetch and parse the manifest
//	for each block, in manifest order
//	  check the block offset against the end of the previous block
//	  fetch the block object                       (or take it from the cache)
//	  decompress it completely
//	  write it to its offset in the destination file
//
// A Stream performs the per-block steps one at a time, only when the caller
// asks for the next chunk. No block is fetched before the previous one has
// been handed to the caller, so memory use is bounded by the size of the
// largest block and every failure can be attributed to exactly one block.
//
// Every error returned by this package can be classified with KindOf.
package restorer
