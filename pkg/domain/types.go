package domain

// User is a registered account. Email is the primary key.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	Name         *string `json:"name"`
	BirthDate    *string `json:"birthDate"`
	Gender       *string `json:"gender"`
}

// UserSummary is the subset of a user returned on login.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Email string  `json:"email"`
}

// Summary returns the login view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Article is a published piece of content with an optional cover image.
type Article struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	Image       *string `json:"image"`
	SourceURL   string  `json:"sourceUrl,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

// ArticlePatch carries the fields an update may replace. Nil means untouched.
type ArticlePatch struct {
	Title   *string
	Content *string
	Image   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Image == nil
}

// StringPtr returns nil for an empty string and a pointer otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
