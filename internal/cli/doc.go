// Package cli defines the Cobra command tree for the wpm CLI. Each file in
// this package registers one top-level command (install, remove, list, etc.)
// with the root command. Commands resolve options once in the root's
// PersistentPreRunE and delegate to internal packages for the work; they
// only handle arguments, output formatting, and error kinds.
package cli
