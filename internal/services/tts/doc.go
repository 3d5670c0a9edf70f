// Package tts implements the primary speech-synthesis client (LMNT-style
// HTTP API). Fallback synthesis paths live in internal/audio; this client
// only knows how to turn text into encoded audio bytes or fail.
package tts
