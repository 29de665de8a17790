// Package staging prepares the scratch tree for a run: it empties the scratch
// root and copies the input recordings into the dandiset directory created by
// the metadata download.
package staging
