package model

// Household is one imported row: the identifier supplied by the source file
// and a display name.
type Household struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
