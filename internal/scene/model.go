package scene

import (
	"strings"
)

// Block is one composed scene: what is said, what is shown, and the code
// that draws it. Indexing matches the outline; downstream stages never
// reorder blocks.
type Block struct {
	Transcript  string `json:"transcript"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// WordCount counts whitespace-separated words in the transcript.
func (b *Block) WordCount() int {
	return len(strings.Fields(b.Transcript))
}
