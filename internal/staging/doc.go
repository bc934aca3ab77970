// Package staging assembles the temporary directory tree that packagers turn
// into artifacts: the .app bundle layout for disk images, or a flat
// application folder for archives. Packagers only read from the result.
package staging
