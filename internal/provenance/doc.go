// Package provenance recovers where a file came from: the download URLs
// and user tags the operating system recorded against it. On macOS this
// is Spotlight metadata read through mdls; on Linux it falls back to the
// freedesktop extended attributes browsers write. Absent metadata is not
// an error, it simply yields an empty result.
package provenance
