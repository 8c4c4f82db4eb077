// Package dwell converts per-cycle zone presence into debounced dwell
// counters. Each zone runs an independent idle/arming/counting state
// machine: a zone must stay continuously occupied past a threshold before
// its counter starts incrementing at a fixed interval, which filters out
// sensor noise and brief pass-throughs. Counters survive deactivation and
// are cleared only by an explicit Reset, typically on a scene switch.
package dwell
