// Package canonical provides deterministic serialization and hashing of
// wizard answer payloads. Every snapshot and evaluation record stores the
// canonical form of its inputs together with a SHA-256 digest, so that a
// digest computed today can be recomputed and verified on a different
// machine years later.
//
// # Canonical Form
//
// Canonicalize produces a JSON document with:
//   - Object keys sorted lexicographically at every nesting level
//   - No insignificant whitespace
//   - Integers rendered without exponent or fraction
//   - Floats rendered with strconv.AppendFloat(-1, 64), the shortest
//     representation that round-trips, independent of platform
//   - Strings escaped exactly as encoding/json escapes them
//
// The input value set is closed: nil, bool, string, integer and float
// types, json.Number, []any, map[string]any, and the corresponding typed
// slices/maps produced by yaml.v3 decoding. Anything else (channels,
// functions, arbitrary structs) is rejected with an EncodingError, which
// is fatal to the snapshot operation that supplied it.
//
// # Hashing
//
// Hash computes the hex-encoded SHA-256 digest of the full canonical form.
// Unlike content hashing of large HTTP bodies, answer payloads are small
// and the digest participates in integrity verification, so the input is
// never truncated before hashing.
package canonical
