package entity

import (
	"time"
)

type User struct {
	ID        string   `json:"id" firestore:"id"`
	Nickname  string   `json:"nickname" firestore:"nickname"`
	Age       int      `json:"age,omitempty" firestore:"age,omitempty"`
	Bio       string   `json:"bio,omitempty" firestore:"bio,omitempty"`
	Avatar    string   `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	PhotoURLs []string `json:"photo_urls,omitempty" firestore:"photoUrls,omitempty"`
	Interests []string `json:"interests" firestore:"interests"`
	Role      string   `json:"role,omitempty" firestore:"role,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

const RoleAdmin = "admin"

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.PhotoURLs = append([]string(nil), u.PhotoURLs...)
	c.Interests = append([]string(nil), u.Interests...)
	return &c
}
