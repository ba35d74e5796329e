// Package analysis characterises trajectories beyond conserved quantities.
//
// [Lyapunov] estimates the largest Lyapunov exponent by following a shadow
// trajectory a small distance from the reference and renormalising it after
// every step. Bound orbits such as a circular binary give values near zero;
// close three-body encounters give clearly positive ones:
//
//	lambda, err := analysis.Lyapunov(ctx, sys, integ, x0, dt, duration, 1e-8)
package analysis
