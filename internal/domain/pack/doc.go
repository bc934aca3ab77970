// Package pack holds the packaging domain model: target platforms, the
// expanded configuration consumed by the assembly engine, the Packager
// capability implemented per artifact kind, the platform routing table, and
// the error taxonomy shared by the pipeline stages.
//
// The types here carry no I/O. Concrete packagers live in internal/dmg and
// internal/archive; the service layer maps the routed ArtifactKind onto one
// of them exactly once per run.
package pack
