/*
Package ports defines the driven ports (interfaces) for the keyseq engine.

These interfaces decouple the matcher from the devices that feed it and from
the backends that persist sequence definitions.

# Key Interfaces

  - KeyboardSource: push-driven keyboard events, released through a Subscription.
  - GamepadSource: pull-driven gamepad snapshots, polled once per frame.
  - FrameSource: the refresh cadence that drives gamepad polling.
  - Clock: schedules the sliding deadline of a matcher.
  - SequenceStore: persists named sequence definitions.
  - DistributedLocker: serializes writes to a shared SequenceStore.
*/
package ports
