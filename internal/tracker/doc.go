// Package tracker implements the collection synchronizer at the heart
// of oclock.
//
// # Overview
//
// The tracker owns three mutable collections - todo items, work
// sessions, and the user settings record - and a small timer state
// machine. Views and commands never touch storage directly: they call
// tracker mutations, the tracker updates in-memory state, then performs
// the tier-appropriate write.
//
// # Tiers
//
// Two durability tiers exist:
//
//   - signed out: the local blob store (internal/store/local)
//   - signed in as U: the remote owner-scoped table store
//     (internal/store/remote), always filtered and stamped with U
//
// On every principal transition the tracker re-hydrates its in-memory
// state from the tier the new principal implies. Local writes are gated
// behind a per-collection hydration guard so an empty in-memory
// sequence can never clobber durable local data before the initial read
// completes.
//
// # Persistence policy
//
// The three collections do not share one remote write shape:
//
//   - todos: per-row upsert and delete keyed by id
//   - sessions and settings: full replace (delete-all-by-owner plus
//     bulk insert, or upsert of the whole record)
//
// Remote writes are fire-and-forget from the mutation handler's point
// of view, but each collection's writes flow through a serialized queue
// so they land in mutation order. Flush awaits everything in flight;
// Close abandons whatever has not landed yet. Remote failures are
// logged and surfaced as notifications; in-memory state is never rolled
// back.
//
// # Timer
//
// startTimer inserts a placeholder session immediately and records the
// active timer in the local store, so a crash or process exit can
// recover the running session. stopTimer finalizes the placeholder in
// place, capturing the hourly rate at that moment. A countdown timer
// finalizes itself through the same path when its target elapses.
package tracker
