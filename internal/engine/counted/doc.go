// Package counted provides Handle, a reference-counted owner of a single
// allocated object.
//
// Go reclaims memory on its own, so the count here governs something else:
// when the object is destroyed and its backing block returned to the
// allocator that produced it. That lets pooled or accounted allocators reuse
// storage the moment the last owner lets go, while structurally shared
// objects stay alive for as long as any owner needs them.
//
// Handles follow a simple discipline:
//
//	h, _ := counted.Allocate(a, 16, build) // count 1
//	h2 := h.Clone()                        // count 2
//	h.Release()                            // count 1, h is now nil
//	h2.Release()                           // count 0, object destroyed
//
// A Handle is a small value; copying it with = does not change the count.
// Use Clone for a new owner and Move to hand ownership over.
package counted
