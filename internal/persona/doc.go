// Package persona loads narration voice presets. Presets ship embedded and
// can be overridden or extended from a YAML file on disk.
package persona
