package models

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type VisionCategory string

const (
	VisionProfessional  VisionCategory = "professional"
	VisionPersonal      VisionCategory = "personal"
	VisionFinancial     VisionCategory = "financial"
	VisionHealth        VisionCategory = "health"
	VisionRelationships VisionCategory = "relationships"
)

type VisionTimeframe string

const (
	TimeframeTwoYears   VisionTimeframe = "2-years"
	TimeframeThreeYears VisionTimeframe = "3-years"
)

type CycleStatus string

const (
	CycleStatusPlanning  CycleStatus = "planning"
	CycleStatusActive    CycleStatus = "active"
	CycleStatusCompleted CycleStatus = "completed"
	CycleStatusPaused    CycleStatus = "paused"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type User struct {
	ID          string    `json:"id"`
	OIDCSubject string    `json:"-"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatarUrl"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Vision struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    VisionCategory  `json:"category"`
	Timeframe   VisionTimeframe `json:"timeframe"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Cycle is a fixed 12-week execution window. EndDate is always
// StartDate + 84 days; it is recomputed whenever StartDate changes.
type Cycle struct {
	ID        string      `json:"id"`
	UserID    string      `json:"-"`
	Name      string      `json:"name"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Status    CycleStatus `json:"status"`

	Objectives    []Objective    `json:"objectives"`
	WeeklyReviews []WeeklyReview `json:"weeklyReviews"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Objective struct {
	ID          string     `json:"id"`
	CycleID     string     `json:"cycleId"`
	VisionID    string     `json:"visionId"`
	UserID      string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Measurable  string     `json:"measurable"`
	Deadline    time.Time  `json:"deadline"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Actions []Action `json:"actions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Action is a single prioritized task assigned to one week (1-12) of an
// objective. CompletedAt is set exactly when Completed flips to true and
// cleared when it flips back to false; the two fields are never written
// independently.
type Action struct {
	ID            string     `json:"id"`
	ObjectiveID   string     `json:"objectiveId"`
	UserID        string     `json:"-"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	WeekNumber    int        `json:"weekNumber"`
	Priority      Priority   `json:"priority"`
	EstimatedTime *float64   `json:"estimatedTime,omitempty"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// WeeklyReview is a frozen retrospective snapshot for one week of a cycle.
// CompletionRate is recorded at submission time and never recomputed.
type WeeklyReview struct {
	ID             string    `json:"id"`
	CycleID        string    `json:"cycleId"`
	UserID         string    `json:"-"`
	WeekNumber     int       `json:"weekNumber"`
	CompletionRate float64   `json:"completionRate"`
	Obstacles      []string  `json:"obstacles"`
	Adjustments    []string  `json:"adjustments"`
	Learnings      []string  `json:"learnings"`
	CreatedAt      time.Time `json:"createdAt"`
}

type APIToken struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TokenHash       string     `json:"-"`
	Scope           string     `json:"scope"`
	CreatedByUserID string     `json:"-"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}
