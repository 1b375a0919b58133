package tools

// Caller is the runtime identity a capability acts for. It is supplied by the
// authenticated request, never by model arguments.
type Caller struct {
	OwnerID   string `json:"ownerId"`
	FirstName string `json:"firstName"`
	Company   string `json:"company"`
}

func (c Caller) Authenticated() bool {
	return c.OwnerID != ""
}
