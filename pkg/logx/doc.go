// Package logx wraps zerolog for tgmarkup.
//
// Console output is human readable with a short caller, the optional file
// sink writes JSON lines, and the optional chat sink forwards warnings to the
// bot owner at a bounded rate.
package logx
