// Package scene composes narrated animation scenes from outline blocks.
// Each block yields a transcript, a visual description, and animation code;
// results are memoized by content hash and narrative context flows between
// scenes through the accumulator.
package scene
