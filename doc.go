// Package bcache implements a block buffer [Cache] for a filesystem layer.
//
// The cache keeps a fixed pool of buffers, each able to hold one disk block.
// Buffers are found through a table of hash buckets keyed by block number,
// each bucket guarded by its own lock, so lookups of unrelated blocks
// do not contend. Reuse picks the least recently used unreferenced buffer.
//
// The following is a summary intended for maintainers.
//
// Glossary and invariants:
//
//   - Buffer: one slot of the pool; a payload plus the identity
//     (device, block) it currently caches.
//
//     At most one buffer carries a given identity at any moment.
//     A buffer that never held a block has no identity at all,
//     and cannot be confused with block 0 of device 0.
//
//   - Bucket: the list of buffers whose block number hashes to it
//     (block mod bucket count).
//
//     Every buffer is a member of exactly one bucket list,
//     and always the bucket its block number hashes to.
//
//   - Reference count: the number of current owners of a buffer,
//     counting acquisitions and pins.
//
//     Never negative. A buffer with a nonzero count is never recycled.
//
//   - Exclusive use: the sleeping lock an owner holds while it reads
//     or modifies the payload. Waiters are parked, never spun.
//
//     The lock records which [Handle] holds it, so writing or
//     releasing through a handle that does not hold it is detected.
//
//   - Recency: a stamp taken from the cache clock when a buffer is
//     claimed or released. Stamps only ever increase.
//
//   - Pin: an extra reference without exclusive use,
//     keeping a block resident across many operations.
//
// Operations:
//
//   - Hit
//
//     The block's bucket lists a buffer with its identity;
//     the reference count is raised under the bucket lock.
//
//   - Miss
//
//     Misses are serialized by the pool-wide eviction lock.
//     The target bucket is searched again, since another miss may
//     have installed the block. Otherwise every buffer is scanned and
//     the unreferenced one with the smallest recency is chosen;
//     ties go to the lowest pool index. The victim is retagged,
//     marked invalid, and moved to the target bucket while both its
//     old and new bucket locks are held.
//
//   - Exhaustion
//
//     If a miss finds every buffer referenced, the cache panics
//     with [ErrNoBuffers]. There is no queueing at this layer.
//
// Lock order:
//
//   - eviction < bucket[0] < ... < bucket[n-1] < reference count < exclusive use.
//
//     All locks other than exclusive use are released before
//     an operation may sleep on exclusive use.
//     Builds tagged bcache_debug check this order on every acquisition.
//
// Failures:
//
//   - Contract violations and device errors are not returned.
//     They are logged and raised as a panic whose value is an error
//     wrapping [ErrNotHeld], [ErrRefUnderflow], [ErrTransfer],
//     or [ErrNoBuffers].
package bcache
