// Package render turns scene code into video clips by driving the
// animation engine binary. Engine failures are retried once and then
// replaced with a generated title card so every scene yields a playable
// artifact.
package render
