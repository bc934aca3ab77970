// Package archive produces the zip and tar.gz artifacts for the platforms
// that do not use disk images. Both packagers walk the staging tree in
// lexical order so identical input yields identical archives, preserve
// executable permission bits, keep symbolic links as links, and remove
// partial output whenever writing fails.
package archive
