package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-exam-api/internal/dto"
	"github.com/noah-isme/sma-exam-api/internal/models"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	appErrors "github.com/noah-isme/sma-exam-api/pkg/errors"
)

type seatingStudentRepository interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type seatingConflictRepository interface {
	List(ctx context.Context) ([]models.ConflictPair, error)
}

type seatingPlanRepository interface {
	List(ctx context.Context) ([]models.SeatingPlan, error)
	FindByID(ctx context.Context, id string) (*models.SeatingPlan, error)
	Create(ctx context.Context, plan *models.SeatingPlan) error
	Update(ctx context.Context, plan *models.SeatingPlan) error
	Delete(ctx context.Context, id string) error
}

// Sub-stream offsets keep the two tiers and three gender partitions on
// independent shuffle sequences so editing one group never reorders another.
const (
	streamFrontGirls = 1
	streamFrontBoys  = 2
	streamFrontOther = 3
	streamStdGirls   = 10
	streamStdBoys    = 20
	streamStdOther   = 30
)

// SeatingService generates and edits deterministic seating plans.
type SeatingService struct {
	students  seatingStudentRepository
	conflicts seatingConflictRepository
	plans     seatingPlanRepository
	validator *validator.Validate
	planCheck *PlanValidator
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       config.SeatingConfig
	now       func() time.Time
}

// NewSeatingService constructs a SeatingService.
func NewSeatingService(students seatingStudentRepository, conflicts seatingConflictRepository, plans seatingPlanRepository, planCheck *PlanValidator, metrics *MetricsService, cfg config.SeatingConfig, logger *zap.Logger) *SeatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if planCheck == nil {
		planCheck = NewPlanValidator()
	}
	return &SeatingService{
		students:  students,
		conflicts: conflicts,
		plans:     plans,
		validator: validator.New(),
		planCheck: planCheck,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// BuildSeats expands a layout into its seat list in row-major order. Double
// desks yield a left and a right seat per desk position.
func BuildSeats(layout models.SeatLayout) []models.Seat {
	seats := make([]models.Seat, 0, layout.SeatCount())
	for row := 1; row <= layout.Rows; row++ {
		for col := 1; col <= layout.Cols; col++ {
			base := fmt.Sprintf("R%d-C%d", row, col)
			isFront := row <= layout.FrontRowDepth
			if layout.DeskType == models.DeskDouble {
				seats = append(seats,
					models.Seat{ID: base + "-L", Row: row, Col: col, Side: models.SideLeft, IsFront: isFront},
					models.Seat{ID: base + "-R", Row: row, Col: col, Side: models.SideRight, IsFront: isFront},
				)
			} else {
				seats = append(seats, models.Seat{ID: base, Row: row, Col: col, IsFront: isFront})
			}
		}
	}
	return seats
}

// partnerSeatID returns the other half of a double desk, or "" for singles.
func partnerSeatID(seat models.Seat) string {
	switch seat.Side {
	case models.SideLeft:
		return seat.DeskKey() + "-R"
	case models.SideRight:
		return seat.DeskKey() + "-L"
	default:
		return ""
	}
}

// balancedQueue partitions a tier by gender, shuffles each partition on its
// own seed stream and interleaves girl, boy, girl, boy. Students without a
// recorded gender follow at the end of the tier.
func balancedQueue(tier []models.Student, seed uint32, girlStream, boyStream, otherStream int) []models.Student {
	var girls, boys, others []models.Student
	for _, st := range tier {
		switch st.Gender {
		case models.GenderFemale:
			girls = append(girls, st)
		case models.GenderMale:
			boys = append(boys, st)
		default:
			others = append(others, st)
		}
	}
	shuffle(girls, newMulberry32(seed+uint32(girlStream)))
	shuffle(boys, newMulberry32(seed+uint32(boyStream)))
	shuffle(others, newMulberry32(seed+uint32(otherStream)))

	queue := make([]models.Student, 0, len(tier))
	for i := 0; i < len(girls) || i < len(boys); i++ {
		if i < len(girls) {
			queue = append(queue, girls[i])
		}
		if i < len(boys) {
			queue = append(queue, boys[i])
		}
	}
	return append(queue, others...)
}

func hasConflict(a, b string, pairs []models.ConflictPair) bool {
	for _, p := range pairs {
		if p.Involves(a, b) {
			return true
		}
	}
	return false
}

// Generate creates a new seating plan from the current roster. When
// BasePlanID is set, pinned seats of the base plan carry over as long as
// their occupants are still on the roster.
func (s *SeatingService) Generate(ctx context.Context, req dto.GenerateSeatingRequest) (*models.SeatingPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid seating request")
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load roster")
	}
	pairs, err := s.conflicts.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load conflict pairs")
	}

	var base *models.SeatingPlan
	if req.BasePlanID != nil && *req.BasePlanID != "" {
		base, err = s.plans.FindByID(ctx, *req.BasePlanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrNotFound
			}
			return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load base plan")
		}
	}

	layout := req.Layout
	if layout.FrontRowDepth <= 0 {
		layout.FrontRowDepth = s.cfg.FrontRowDepth
	}

	start := s.now()
	seed := weeklySeed(start, req.SeedModifier)
	plan, err := s.assemble(students, pairs, layout, seed, base)
	if err != nil {
		return nil, err
	}
	plan.Name = req.Name
	plan.SeedModifier = req.SeedModifier
	plan.Violations = s.planCheck.Validate(plan, students, pairs)

	if s.metrics != nil {
		s.metrics.ObserveSeatingGeneration(time.Since(start), plan.Stats.Unplaced)
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to persist seating plan")
	}
	s.logger.Sugar().Infow("seating plan generated",
		"plan_id", plan.ID, "seed", plan.Seed,
		"placed", plan.Stats.Placed, "unplaced", plan.Stats.Unplaced, "conflicts", plan.Stats.Conflicts)
	return plan, nil
}

// assemble runs the deterministic placement pass.
func (s *SeatingService) assemble(students []models.Student, pairs []models.ConflictPair, layout models.SeatLayout, seed uint32, base *models.SeatingPlan) (*models.SeatingPlan, error) {
	if len(students) == 0 {
		return nil, appErrors.ErrEmptyRoster
	}

	seats := BuildSeats(layout)
	seatByID := make(map[string]models.Seat, len(seats))
	for _, seat := range seats {
		seatByID[seat.ID] = seat
	}
	roster := make(map[string]models.Student, len(students))
	for _, st := range students {
		roster[st.ID] = st
	}

	assignments := make(map[string]string, len(seats))
	var pinned []string
	placed := make(map[string]bool, len(students))

	// Pins survive regeneration only while the seat still exists and the
	// occupant is still enrolled. Stale pins are dropped silently.
	if base != nil {
		for _, seatID := range base.PinnedSeatIDs {
			occupant, ok := base.Assignments[seatID]
			if !ok {
				continue
			}
			if _, exists := seatByID[seatID]; !exists {
				continue
			}
			if _, enrolled := roster[occupant]; !enrolled {
				continue
			}
			assignments[seatID] = occupant
			pinned = append(pinned, seatID)
			placed[occupant] = true
		}
	}

	var frontTier, standardTier []models.Student
	for _, st := range students {
		if placed[st.ID] {
			continue
		}
		if st.Profile.FrontRowPreferred {
			frontTier = append(frontTier, st)
		} else {
			standardTier = append(standardTier, st)
		}
	}

	queue := balancedQueue(frontTier, seed, streamFrontGirls, streamFrontBoys, streamFrontOther)
	queue = append(queue, balancedQueue(standardTier, seed, streamStdGirls, streamStdBoys, streamStdOther)...)

	conflictCount := 0
	for _, seat := range seats {
		if len(queue) == 0 {
			break
		}
		if _, occupied := assignments[seat.ID]; occupied {
			continue
		}

		partner := ""
		if pid := partnerSeatID(seat); pid != "" {
			partner = assignments[pid]
		}

		// First candidate without a deskmate conflict wins. No backtracking:
		// if everyone left conflicts with the partner, the seat stays empty.
		pick := -1
		for i, cand := range queue {
			if partner == "" || !hasConflict(cand.ID, partner, pairs) {
				pick = i
				break
			}
		}
		if pick == -1 {
			conflictCount++
			continue
		}
		if pick > 0 {
			conflictCount++
		}
		assignments[seat.ID] = queue[pick].ID
		queue = append(queue[:pick], queue[pick+1:]...)
	}

	unplaced := make([]string, 0, len(queue))
	for _, st := range queue {
		unplaced = append(unplaced, st.ID)
	}

	return &models.SeatingPlan{
		Layout:        layout,
		Seed:          seed,
		Assignments:   assignments,
		PinnedSeatIDs: pinned,
		Unplaced:      unplaced,
		Stats: models.PlanStats{
			Placed:    len(assignments),
			Total:     len(students),
			Unplaced:  len(unplaced),
			Conflicts: conflictCount,
		},
	}, nil
}

// List returns every stored plan.
func (s *SeatingService) List(ctx context.Context) ([]models.SeatingPlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to list seating plans")
	}
	return plans, nil
}

// Get fetches one plan.
func (s *SeatingService) Get(ctx context.Context, id string) (*models.SeatingPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to load seating plan")
	}
	return plan, nil
}

// Delete removes a plan.
func (s *SeatingService) Delete(ctx context.Context, id string) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to delete seating plan")
	}
	return nil
}

// MoveStudent moves a student to the target seat. A move onto an occupied
// seat swaps the two occupants. Violations are recomputed but never block
// the edit, manual moves are advisory-checked only.
func (s *SeatingService) MoveStudent(ctx context.Context, planID string, req dto.MoveStudentRequest) (*models.SeatingPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid move request")
	}
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	seatByID := make(map[string]models.Seat)
	for _, seat := range BuildSeats(plan.Layout) {
		seatByID[seat.ID] = seat
	}
	if _, ok := seatByID[req.TargetSeatID]; !ok {
		return nil, appErrors.ErrSeatUnknown
	}

	currentSeat, hadSeat := plan.StudentSeat(req.StudentID)
	occupant, occupied := plan.Assignments[req.TargetSeatID]
	if occupied && occupant == req.StudentID {
		return plan, nil
	}

	if occupied && hadSeat {
		plan.Assignments[currentSeat] = occupant
	} else if hadSeat {
		delete(plan.Assignments, currentSeat)
	}
	plan.Assignments[req.TargetSeatID] = req.StudentID

	plan.Unplaced = removeString(plan.Unplaced, req.StudentID)
	if occupied && !hadSeat {
		plan.Unplaced = append(plan.Unplaced, occupant)
	}
	plan.Stats.Placed = len(plan.Assignments)
	plan.Stats.Unplaced = len(plan.Unplaced)

	if err := s.refreshViolations(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to update seating plan")
	}
	return plan, nil
}

// PinSeat toggles the pinned flag on a seat. Only occupied seats can be
// pinned.
func (s *SeatingService) PinSeat(ctx context.Context, planID string, req dto.PinSeatRequest) (*models.SeatingPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid pin request")
	}
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	if req.Pinned {
		if _, occupied := plan.Assignments[req.SeatID]; !occupied {
			return nil, appErrors.ErrSeatUnknown
		}
		if !plan.IsPinned(req.SeatID) {
			plan.PinnedSeatIDs = append(plan.PinnedSeatIDs, req.SeatID)
		}
	} else {
		plan.PinnedSeatIDs = removeString(plan.PinnedSeatIDs, req.SeatID)
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to update seating plan")
	}
	return plan, nil
}

// Validate recomputes the violation list for a stored plan.
func (s *SeatingService) Validate(ctx context.Context, planID string) (*dto.ValidatePlanResponse, error) {
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshViolations(ctx, plan); err != nil {
		return nil, err
	}
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, "DB_ERROR", 500, "failed to update seating plan")
	}
	return &dto.ValidatePlanResponse{
		PlanID:     plan.ID,
		Valid:      len(plan.Violations) == 0,
		Violations: plan.Violations,
	}, nil
}

func (s *SeatingService) refreshViolations(ctx context.Context, plan *models.SeatingPlan) error {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to load roster")
	}
	pairs, err := s.conflicts.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, "DB_ERROR", 500, "failed to load conflict pairs")
	}
	plan.Violations = s.planCheck.Validate(plan, students, pairs)
	plan.Stats.Conflicts = 0
	for _, v := range plan.Violations {
		if v.Type == models.ViolationConflict {
			plan.Stats.Conflicts++
		}
	}
	return nil
}

func removeString(items []string, target string) []string {
	out := items[:0]
	for _, it := range items {
		if it != target {
			out = append(out, it)
		}
	}
	return out
}
