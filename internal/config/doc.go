// Package config loads the packaging manifest in either of two formats: a
// Cargo-style project manifest (packager.toml, identity under [package] and
// settings under [package.metadata.packager]) or a standalone YAML manifest
// (packager.yaml). Both are merged into the same expanded configuration:
// $NAME/$VERSION/$PLATFORM template variables are substituted, defaults are
// applied, and required fields are validated before the engine ever sees the
// result.
package config
