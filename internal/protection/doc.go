// Package protection implements the lock state machine that guards the
// settings aggregate.
//
// The state is derived from the stored record:
//   - Unconfigured: no password, every mutation is allowed
//   - Locked: password set, only protection transitions are allowed
//   - Unlocked: password verified, mutations allowed until auto-revert
//
// Every transition is a read-modify-write of the whole record performed
// under one mutex, persisted through the store and then published to
// every Notifier. Published and returned records never carry the
// credential blob.
//
// Policy failures are returned as *Rejection. Any other error comes from
// a collaborator (store or codec) and should be treated as fatal to the
// request.
package protection
