// Package backup reads the backup configuration documents (manifests) that
// describe a single backup image, and maps block checksums to the names of
// the objects holding the compressed block data.
//
// A backup lives below a root in the object store:
//
//	<root>/<subdir>/<manifest>
//	<root>/blocks/<c[0:2]>/<c[2:4]>/<c>.blk
//
// where c is the checksum of the stored (compressed) block.
package backup
