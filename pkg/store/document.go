package store

// Document is one unit of source content, e.g. one video transcript.
type Document struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// NewDocument copies metadata so the document cannot be mutated through the caller's map.
func NewDocument(text string, metadata map[string]string) Document {
	return Document{
		Text:     text,
		Metadata: CloneMetadata(metadata),
	}
}

// Chunk is a bounded slice of a Document. Start and End are byte offsets
// into the document text; consecutive chunks overlap when the next Start
// is before the previous End.
type Chunk struct {
	Index    int               `json:"index"`
	Text     string            `json:"text"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChunkSet is the ordered output of the chunker. Order is document order.
type ChunkSet []Chunk

// Texts returns the chunk texts in order.
func (s ChunkSet) Texts() []string {
	texts := make([]string, len(s))
	for i, c := range s {
		texts[i] = c.Text
	}
	return texts
}

// Reassemble rebuilds the source text by dropping the overlap carried by
// every chunk after the first.
func (s ChunkSet) Reassemble() string {
	if len(s) == 0 {
		return ""
	}
	out := make([]byte, 0, s[len(s)-1].End)
	out = append(out, s[0].Text...)
	for i := 1; i < len(s); i++ {
		overlap := s[i-1].End - s[i].Start
		if overlap < 0 {
			overlap = 0
		}
		if overlap > len(s[i].Text) {
			overlap = len(s[i].Text)
		}
		out = append(out, s[i].Text[overlap:]...)
	}
	return string(out)
}

// CloneMetadata returns a shallow copy of in, or nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
