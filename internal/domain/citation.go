package domain

// CitationRequest identifies the evidence behind a citation.
type CitationRequest struct {
	FilePath   string `json:"filePath" validate:"required"`
	PageNumber int    `json:"pageNumber" validate:"gte=0"`
	ChunkID    string `json:"chunkId"`
}

// Evidence is an opaque document payload with its content type preserved.
type Evidence struct {
	ContentType string
	Data        []byte
}
