// Package audio produces narration tracks for scenes. Synthesis walks a
// fallback chain (speech API, local synthesizer, silent track sized to the
// speaking-rate estimate) so audio never blocks a job.
package audio
