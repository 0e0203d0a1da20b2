// Package platform provides the filesystem operations the install workflow
// relies on: a recursive copy that keeps file modes and symlinks, and a move
// that survives crossing filesystems. On Windows without symlink support,
// links are replaced by copies of what they point at plus a .target sidecar,
// and permission bits are not applied.
package platform
