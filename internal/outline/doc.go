// Package outline turns a source document into an ordered outline of
// narration blocks. Generation goes through the LLM client with schema
// validation and corrective retries; exhausting the retries is the only
// unrecoverable failure in the pipeline.
package outline
