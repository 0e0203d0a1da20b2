// Package shell runs external commands for the install and remove
// workflows. A Runner either streams a child's output to its writers
// (Spawn) or buffers it (Exec); both return the same Result shape. Nonzero
// exits are reported in the Result unless the Command asks to be checked, in
// which case they surface as a *CommandError.
package shell
