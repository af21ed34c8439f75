package retriever

import "fmt"

// Metadata is the metadata attached to a Document.
type Metadata struct {
	Name string `json:"name"`
}

// Document is one retrievable entry of the corpus.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Guest is a record of the gala invitees dataset.
type Guest struct {
	Name        string `json:"name"`
	Relation    string `json:"relation"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

// Document converts the guest record into a Document.
func (g Guest) Document() Document {
	return Document{
		Content: fmt.Sprintf("Name: %s\nRelation: %s\nDescription: %s\nEmail: %s",
			g.Name, g.Relation, g.Description, g.Email),
		Metadata: Metadata{Name: g.Name},
	}
}
