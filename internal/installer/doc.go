// Package installer implements the install and remove transactions, the
// first-run setup (init), and the read-only inventory views (list, doctor)
// over an install directory and its catalog.
//
// An install claims installDir/<id> with an exclusive mkdir, fills it from a
// local directory or a fresh git clone, then registers the package's modules
// in the catalog. Any failure after the claim removes the claimed directory,
// and the catalog file is only written as the last step.
//
// A remove stages the package directory under a hidden trash name, writes
// the catalog, then deletes the staged directory. When the catalog cannot be
// written the staged directory is renamed back.
package installer
