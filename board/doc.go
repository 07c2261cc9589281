// Package board implements a tiny bulletin board: an ordered list of posts
// persisted in a single line-oriented file.
//
// # File format
//
// Each line of the file is one post, in one of two encodings:
//   - a JSON object {"title": ..., "content": ...} (the current format,
//     the only one writers emit)
//   - the legacy format <title>|||<content>, split on the first "|||"
//
// Blank lines and lines matching neither encoding are skipped when reading.
//
// # Post identity
//
// A post has no stable identifier. Its identity is its 0-based position in
// the list as of the most recent load, which is only stable between one load
// and the next write. Concurrent writers can make a client act on the wrong
// post; this is an accepted limitation of the single-user design.
package board
