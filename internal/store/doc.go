// Package store defines the map point store collaborator and the record
// format shared by its backends.
//
// A store exposes two operations:
//   - Updates: a continuous stream of the full current point list, sent once
//     on subscription and again whenever the list changes
//   - Save: persist one point, completing or failing
//
// # Record Format
//
// Every backend persists points as JSON records:
//
//	{"id":"...","type":"TREE","location":{"latitude":30.26,"longitude":-97.74}}
//
// Decoding is lenient about content and strict about shape: a record whose
// type is outside the known set is skipped (and logged), while a record
// missing a required field fails the whole update.
//
// # Ordering
//
// Backends return points ordered by id so identical contents always yield
// identical lists.
//
// Backends live in subpackages: memory, sqlite and redis.
package store
