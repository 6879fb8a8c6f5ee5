// Package settings defines the dehook settings aggregate.
//
// AppSettings is persisted as one record and has three parts:
//   - enabled: master switch for content filtering
//   - hiding: 26 independent feature flags, restrictive by default
//   - protection: credential, lock state and auto-revert policy
//
// Values are plain data. Locking rules live in package protection; this
// package only knows defaults, partial updates and presentation helpers.
package settings
