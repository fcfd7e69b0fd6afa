package models

import "time"

// DeskType controls whether a desk position holds one or two seats.
type DeskType string

const (
	DeskSingle DeskType = "single"
	DeskDouble DeskType = "double"
)

// DeskSide distinguishes the two halves of a double desk.
type DeskSide string

const (
	SideLeft  DeskSide = "L"
	SideRight DeskSide = "R"
)

// SeatLayout describes the physical classroom grid.
type SeatLayout struct {
	Rows          int      `json:"rows" validate:"required,min=1,max=20"`
	Cols          int      `json:"cols" validate:"required,min=1,max=20"`
	DeskType      DeskType `json:"desk_type" validate:"required,oneof=single double"`
	FrontRowDepth int      `json:"front_row_depth" validate:"min=0,max=20"`
}

// SeatCount returns the total number of seats the layout provides.
func (l SeatLayout) SeatCount() int {
	n := l.Rows * l.Cols
	if l.DeskType == DeskDouble {
		n *= 2
	}
	return n
}

// Seat is one placeable position in the classroom grid.
type Seat struct {
	ID      string   `json:"id"`
	Row     int      `json:"row"`
	Col     int      `json:"col"`
	Side    DeskSide `json:"side,omitempty"`
	IsFront bool     `json:"is_front"`
}

// DeskKey identifies the desk a seat belongs to, ignoring the side.
func (s Seat) DeskKey() string {
	if s.Side == "" {
		return s.ID
	}
	return s.ID[:len(s.ID)-2]
}

// ConflictPair records two students who must not share a double desk.
type ConflictPair struct {
	ID        string    `db:"id" json:"id"`
	StudentA  string    `db:"student_a" json:"student_a"`
	StudentB  string    `db:"student_b" json:"student_b"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Involves reports whether both students of the pair are the given two,
// in either order.
func (c ConflictPair) Involves(a, b string) bool {
	return (c.StudentA == a && c.StudentB == b) || (c.StudentA == b && c.StudentB == a)
}

// ViolationType classifies seating plan rule breaches.
type ViolationType string

const (
	ViolationFrontRow ViolationType = "frontRow"
	ViolationConflict ViolationType = "conflict"
)

// Violation describes one rule breach found by plan validation.
type Violation struct {
	Type      ViolationType `json:"type"`
	SeatID    string        `json:"seat_id"`
	StudentID string        `json:"student_id"`
	OtherID   string        `json:"other_id,omitempty"`
	Message   string        `json:"message"`
}

// PlanStats summarizes a generated plan.
type PlanStats struct {
	Placed    int `json:"placed"`
	Total     int `json:"total"`
	Unplaced  int `json:"unplaced"`
	Conflicts int `json:"conflicts"`
}

// SeatingPlan is a persisted seat assignment for a roster.
type SeatingPlan struct {
	ID            string            `db:"id" json:"id"`
	Name          string            `db:"name" json:"name"`
	Layout        SeatLayout        `json:"layout"`
	Seed          uint32            `db:"seed" json:"seed"`
	SeedModifier  int               `db:"seed_modifier" json:"seed_modifier"`
	Assignments   map[string]string `json:"assignments"`
	PinnedSeatIDs []string          `json:"pinned_seat_ids"`
	Unplaced      []string          `json:"unplaced"`
	Stats         PlanStats         `json:"stats"`
	Violations    []Violation       `json:"violations"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// StudentSeat returns the seat ID currently assigned to a student.
func (p *SeatingPlan) StudentSeat(studentID string) (string, bool) {
	for seatID, sid := range p.Assignments {
		if sid == studentID {
			return seatID, true
		}
	}
	return "", false
}

// IsPinned reports whether a seat is in the pinned set.
func (p *SeatingPlan) IsPinned(seatID string) bool {
	for _, id := range p.PinnedSeatIDs {
		if id == seatID {
			return true
		}
	}
	return false
}
