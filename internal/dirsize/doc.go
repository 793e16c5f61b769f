// Package dirsize computes directory sizes.
//
// Builder walks a directory recursively and produces a tree of Nodes, one per
// directory, honoring depth limits, per-subtree stall timeouts, network and
// cloud-sync skipping, and cooperative cancellation through a Token.
// Measure computes a flat total with fastwalk's parallel traversal when no
// tree is needed.
package dirsize
