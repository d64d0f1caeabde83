// internal/domain/models/teacher.go
package models

// Teacher is a staff account allowed to manage announcements.
//
// The username doubles as the document _id. Teachers are seeded out of band
// (see cmd/seedteachers) and are read-only for the HTTP handlers.
type Teacher struct {
	ID           string `bson:"_id" json:"-"`
	Username     string `bson:"username" json:"username"`
	DisplayName  string `bson:"display_name" json:"display_name"`
	Role         string `bson:"role" json:"role"`
	PasswordHash string `bson:"password" json:"-"`
}

// Profile is the public view of a teacher. It never carries the password hash.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Profile returns the public fields of t.
func (t Teacher) Profile() Profile {
	username := t.Username
	if username == "" {
		username = t.ID
	}
	return Profile{
		Username:    username,
		DisplayName: t.DisplayName,
		Role:        t.Role,
	}
}
