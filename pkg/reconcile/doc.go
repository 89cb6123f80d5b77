// Copyright © 2018 One Concern

/*
Package reconcile applies a restored tree onto a local target tree.

Two strategies are provided, and they are deliberately not unified:

  - Merge copies every source file over the destination, leaving destination-only files untouched.
  - Replace removes the destination tree, then copies the source tree in its place.

Both are last-writer-wins: no versioning, no conflict detection.
*/
package reconcile
