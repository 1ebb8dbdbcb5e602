package entity

// File describes a source document an entity was loaded from. A file
// holding a JSON array yields one sequence per element; any other
// content is a single sequence.
type File struct {
	Path            string
	Name            string
	Content         any
	SequencesCount  int
	SequenceContent map[int]any
}

// NewFile wraps raw decoded content, splitting top-level arrays into
// indexed sequences.
func NewFile(path, name string, content any) *File {
	f := &File{
		Path:            path,
		Name:            name,
		Content:         content,
		SequenceContent: map[int]any{},
	}
	items, ok := content.([]any)
	if !ok {
		items = []any{content}
	}
	for i, it := range items {
		f.SequenceContent[i] = it
		f.SequencesCount++
	}
	return f
}
