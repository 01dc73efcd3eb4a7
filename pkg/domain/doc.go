/*
Package domain contains the core domain models of the keyseq engine.

It defines the vocabulary shared by the matcher, the input normalizer and the
adapters: sequences, tokens, raw keyboard and gamepad snapshots, events and
hooks. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Sequence: the ordered list of symbols a user must enter.
  - Token: one normalized input activation, independent of its device.
  - Event: what the matcher reports (input, progress, match, mismatch, timeout).
  - Definition: a named Sequence as persisted by a SequenceStore.
*/
package domain
