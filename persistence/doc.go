// Package persistence implements the model snapshot file format.
//
// A snapshot stores a fitted centroid set together with the model metadata
// needed to restore an equivalent model: a restored model predicts and
// transforms exactly like the one that was saved.
//
// The format is self-describing. Every file records its codec name and
// compression algorithm in the header and carries a CRC32 trailer over all
// preceding bytes, so corruption is detected on load rather than surfacing as
// silently wrong centroids.
package persistence
