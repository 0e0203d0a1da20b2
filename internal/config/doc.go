// Package config resolves the options every wpm command runs with. Values
// come from command-line flags, WPM_* environment variables, and the user
// settings file at ~/.wpm/config.yaml, in that order of precedence. The
// result is an immutable Options value handed to the workflows.
package config
