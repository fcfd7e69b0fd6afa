package models

import "time"

// Gender codes follow the roster import format: K (kiz) and E (erkek).
// The empty string marks an unspecified gender.
type Gender string

const (
	GenderFemale Gender = "K"
	GenderMale   Gender = "E"
)

// Student represents a roster member.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	StudentNumber *string   `db:"student_number" json:"student_number,omitempty"`
	Gender        Gender    `db:"gender" json:"gender,omitempty"`
	Profile       Profile   `json:"profile"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Profile carries placement-relevant student attributes. SpecialNeeds is
// informational only and never used as a placement criterion.
type Profile struct {
	FrontRowPreferred bool   `db:"front_row_preferred" json:"front_row_preferred"`
	SpecialNeeds      string `db:"special_needs" json:"special_needs,omitempty"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	Search    string
	Gender    Gender
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
