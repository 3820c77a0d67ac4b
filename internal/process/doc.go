// Package process cleans up browser process trees.
//
// Killing only the Chrome parent can orphan its renderer processes, so the
// renderer pool kills the whole tree when an engine closes.
package process
