// Package scaffold generates a new plugin package skeleton from embedded
// templates. It powers the "wpm create" command: a webida-package.json
// declaring the package's modules, one directory per module, and a README.
package scaffold
