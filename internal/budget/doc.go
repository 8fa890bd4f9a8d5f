// Package budget derives the index writer's memory arena and thread count
// from a point-in-time snapshot of system resources.
//
// The snapshot comes from a Provider so tests can substitute fixed values;
// SystemProvider reads the host through gopsutil.
package budget
