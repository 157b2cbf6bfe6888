// Package store implements the timed cache that holds the blog application's UI
// state: the signed-in user, profile lookups, feed and per-user blog pages,
// following lists, suggested users, user statistics and follow flags.
//
// Key properties:
//   - Every table except the current user and user profiles is TTL-governed. An
//     entry is stale once it is strictly older than the store TTL (5 minutes by
//     default).
//   - Expiration is lazy: getters report stale entries as absent but leave them in
//     place until they are overwritten, invalidated, cleared or pruned.
//   - Mutations build new tables and publish a new immutable state in one atomic
//     swap, so readers never see a partially updated table.
//   - A Persister, when configured, receives the persisted subset of the state
//     after every mutation. Loading that state back is done by package persist.
//
// Time is read from an injected clockwork.Clock so tests can advance it.
package store
