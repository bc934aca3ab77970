// Package bundle constructs the macOS application bundle skeleton
// (Contents/MacOS, Contents/Resources, Info.plist) that the staging
// assembler fills with executables and resources.
package bundle
