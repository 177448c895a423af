// Package demo holds the example stores served by `fluxe serve` and
// described by `fluxe explain`.
package demo
