/*
Package runtime implements the sequence matcher, the state machine at the
heart of keyseq.

A Matcher holds the position reached in the target sequence and a sliding
deadline. It is not safe for concurrent use: the owner must serialize
Process, Expire and the administrative calls (the keyseq.Listener does this
with a single mutex, and routes deadline expiry through it via
WithDeadlineHandler).
*/
package runtime
