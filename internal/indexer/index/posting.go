package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     uint32 `json:"d"`
	Frequency int    `json:"f"`
}

// PostingList is sorted by DocID.
type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}

// StoredDoc holds the retrieval-only fields of a document, kept verbatim.
// Length is the number of source tokens.
type StoredDoc struct {
	Name     string `json:"n,omitempty"`
	Source   string `json:"s"`
	Target   string `json:"t,omitempty"`
	Position int    `json:"p"`
	Length   int    `json:"l"`
}
