// Package runner walks a baseline store's revision history and compares
// each revision with the one before it.
package runner
