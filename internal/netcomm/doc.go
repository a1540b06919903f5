// Package netcomm implements the channels that cross the host/target
// boundary of a net.
//
// A Channel is a named, typed slot carrying the last value and the cycle
// index of its last update. In channels are written by the host; writes are
// queued on the Bus and applied by the net at the start of its next cycle,
// stamped with that cycle. Out channels are published by the net at the end
// of every successful cycle.
//
// Listeners are called after the channel lock is released, from a snapshot
// of the listener set taken under the lock. A listener may subscribe,
// cancel, or write other channels without deadlocking.
//
// Wire contract: keys are unique per net, payloads serialize to the
// ir.FormatValue string form, and timestamps are cycle indices. Wall time is
// cycle*period on the net's clock.
package netcomm
