// Package model defines the records the cache holds on behalf of the data
// providers. The cache treats them as opaque payloads: it only relies on User.ID
// and User.Username where those are used as keys.
package model

// Profile is the extended profile block that may accompany a user record.
type Profile struct {
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Website   string `json:"website,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
}

// User is a user record as returned by the user endpoints.
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	Name      string   `json:"name,omitempty"`
	CreatedAt string   `json:"createdAt,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
}

// FollowingUser is an entry in a user's following list.
type FollowingUser struct {
	User
}

// SuggestedUser is a user recommended for following.
type SuggestedUser struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Name           string   `json:"name,omitempty"`
	Profile        *Profile `json:"profile,omitempty"`
	FollowersCount int      `json:"followersCount"`
}

// Author is the minimal user projection embedded in a blog post.
type Author struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Profile  *Profile `json:"profile,omitempty"`
}

// Blog is a single post in a feed or a user's listing.
type Blog struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}
