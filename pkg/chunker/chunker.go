package chunker

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"video-summary-be/pkg/store"
)

// ConfigError reports chunk parameters that cannot be used.
type ConfigError struct {
	Size    int
	Overlap int
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunker: invalid config (size=%d, overlap=%d): %s", e.Size, e.Overlap, e.Reason)
}

// Chunker splits documents into overlapping chunks of at most Size runes.
type Chunker struct {
	size    int
	overlap int
}

// New validates the size/overlap pair once so Split never fails afterwards.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, &ConfigError{Size: size, Overlap: overlap, Reason: "size must be greater than zero"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Size: size, Overlap: overlap, Reason: "overlap cannot be negative"}
	}
	if overlap >= size {
		return nil, &ConfigError{Size: size, Overlap: overlap, Reason: "overlap must be smaller than size"}
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split is a convenience wrapper around New(maxSize, overlap).Split(doc).
func Split(doc store.Document, maxSize, overlap int) (store.ChunkSet, error) {
	c, err := New(maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(doc), nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Split greedily packs structural units into chunks. Each chunk after the
// first starts with a suffix of the previous one (at most Overlap runes,
// snapped to a word start when one exists in range).
func (c *Chunker) Split(doc store.Document) store.ChunkSet {
	text := doc.Text
	if text == "" {
		return store.ChunkSet{}
	}
	if utf8.RuneCountInString(text) <= c.size {
		return store.ChunkSet{c.newChunk(doc, 0, 0, len(text))}
	}

	units := decompose(text, 0, 0, c.size, nil)

	var chunks store.ChunkSet
	start, end, length := 0, 0, 0
	for _, u := range units {
		if length > 0 && length+u.runes > c.size {
			chunks = append(chunks, c.newChunk(doc, len(chunks), start, end))

			budget := min(c.overlap, c.size-u.runes)
			start = overlapStart(text, start, end, budget)
			length = utf8.RuneCountInString(text[start:end])
		}
		if length == 0 {
			start = u.start
		}
		length += u.runes
		end = u.start + len(u.text)
	}
	if end > start {
		chunks = append(chunks, c.newChunk(doc, len(chunks), start, end))
	}
	return chunks
}

func (c *Chunker) newChunk(doc store.Document, index, start, end int) store.Chunk {
	meta := store.CloneMetadata(doc.Metadata)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta["chunk_index"] = strconv.Itoa(index)
	return store.Chunk{
		Index:    index,
		Text:     doc.Text[start:end],
		Start:    start,
		End:      end,
		Metadata: meta,
	}
}

// overlapStart picks where the next chunk begins inside text[start:end].
// The result is > start so every chunk carries new content, and
// text[result:end] has at most budget runes.
func overlapStart(text string, start, end, budget int) int {
	if budget <= 0 || end-start <= 1 {
		return end
	}

	// character cut: budget runes back from end, but never the whole chunk
	cut := end
	for n := 0; n < budget && cut > start; n++ {
		_, size := utf8.DecodeLastRuneInString(text[start:cut])
		cut -= size
	}
	if cut <= start {
		_, size := utf8.DecodeRuneInString(text[start:])
		cut = start + size
	}
	if cut >= end {
		return end
	}

	// prefer the earliest word start inside the window
	for i := cut; i < end; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i > start {
			prev, _ := utf8.DecodeLastRuneInString(text[:i])
			if unicode.IsSpace(prev) && !unicode.IsSpace(r) {
				return i
			}
		}
		i += size
	}
	return cut
}
