package client

// Account is the authenticated principal as reported by the /account
// endpoint.
type Account struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Company   string `json:"company,omitempty"`
	Plan      string `json:"plan,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Document describes an exportable business document (invoice, order,
// credit note). The platform serves the printable file separately under
// /documents/{id}/file.
type Document struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Number   string `json:"number"`
	FileName string `json:"file_name,omitempty"`
	IssuedAt string `json:"issued_at,omitempty"`
	Total    string `json:"total,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// documentPage is one page of a cursor-paginated document listing.
type documentPage struct {
	Items      []Document `json:"items"`
	NextCursor string     `json:"next_cursor"`
}
