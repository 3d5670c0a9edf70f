// Package cachestore persists stage outputs keyed by deterministic content
// hashes so repeated runs over the same inputs skip LLM and synthesis calls.
// Entries are partitioned by stage, checked against a TTL at read time, and
// concurrent fills for the same key are collapsed to a single producer.
package cachestore
