// Package dmg builds the macOS disk image artifact: a sized writable image
// is created and mounted, the staged application is copied in together with
// an /Applications alias and the converted icon, the Finder window layout is
// applied through an automation script, and the volume is unmounted and
// compressed into the final read-only image.
//
// The disk image tool (hdiutil) and the automation host (osascript) sit
// behind the DiskImage and ScriptHost interfaces, injected into the
// Packager, so the sequencing, retry, and cleanup logic is exercised by
// tests on any platform.
package dmg
