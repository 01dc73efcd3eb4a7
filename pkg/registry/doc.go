// Package registry resolves sequence names to definitions.
//
// It layers a ports.SequenceStore over the built-in presets and serializes
// writes per name, optionally through a ports.DistributedLocker when several
// processes share one store.
package registry
