package transfer

// Progress describes how far a single download has come.
// A DeclaredLength of zero means the server did not announce a usable length.
type Progress struct {
	BytesRead      int64 `json:"bytesRead"`
	DeclaredLength int64 `json:"declaredLength,omitempty"`
}

// Known reports whether the total size of the image was declared.
func (p Progress) Known() bool {
	return p.DeclaredLength > 0
}

// Reached reports whether a declared length has been fully read.
func (p Progress) Reached() bool {
	return p.Known() && p.BytesRead >= p.DeclaredLength
}

// Percent returns the completed share in [0, 100], or -1 when the length is unknown.
func (p Progress) Percent() float64 {
	if !p.Known() {
		return -1
	}
	if p.BytesRead >= p.DeclaredLength {
		return 100
	}
	return float64(p.BytesRead) * 100 / float64(p.DeclaredLength)
}
