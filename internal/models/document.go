package models

// Document is the visible text extracted from a single page.
type Document struct {
	URL   string
	Title string
	Text  string
}

// Empty reports whether the document carries no usable text.
func (d Document) Empty() bool {
	return d.Text == ""
}
