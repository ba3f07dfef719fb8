// Package core holds the shared sentinels, configuration and small block
// helpers used by every streaming stage.
package core
