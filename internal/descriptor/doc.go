// Package descriptor reads and validates package descriptors, the
// webida-package.json file at the root of every installable package. A
// descriptor names the package id and lists the module keys that go into
// each catalog bucket.
package descriptor
