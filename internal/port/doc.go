// Package port implements port scanning and selection for the
// TensorBoard launcher.
//
// The Scanner verifies OS-level availability via net.Listen(), and the
// Picker turns that into the board command's policy: bind the preferred
// port (6006 by default) when free, otherwise take the nearest free
// port above it within a bounded window. The window keeps the chosen
// port close to the one the user asked for and makes exhaustion an
// explicit error rather than a surprising port number.
package port
