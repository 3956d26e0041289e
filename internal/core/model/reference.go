package model

type ReferenceType string

const (
	ReferenceCode    ReferenceType = "code"
	ReferenceArticle ReferenceType = "article"
	ReferenceLaw     ReferenceType = "law"
	ReferenceDecree  ReferenceType = "decree"
)

type LegalReference struct {
	Text       string        `json:"text"`
	Type       ReferenceType `json:"type"`
	Confidence float64       `json:"confidence"`
}

// SelfDisclosure is a statement inside a text saying that something it
// cites is no longer in force.
type SelfDisclosure struct {
	Pattern     string `json:"pattern"`
	AbrogatedBy string `json:"abrogated_by,omitempty"`
	Position    int    `json:"position"`
}
