// Package ridelog holds the riding log's three documents and the rules for
// changing them: the rider profile with its injury log, the ride sessions,
// and the suspension presets.
//
// Documents are plain values. Mutations happen in memory; callers persist the
// whole document afterwards through a store.DocumentStore. JSON field names
// match the files written by earlier MotoTracker clients, so existing data
// repositories stay readable.
package ridelog

import (
	"errors"
	"time"
)

// DateLayout is the calendar-date format used for session and injury dates.
const DateLayout = "2006-01-02"

const (
	// DefaultClass is the racing class of a new profile.
	DefaultClass = "Amateur"

	// DefaultFeeling is the feeling score offered for a new session.
	DefaultFeeling = 7

	// MaxFeeling is the top of the 0..10 feeling scale.
	MaxFeeling = 10
)

// Sentinel errors for rejected mutations.
var (
	ErrInvalid        = errors.New("ridelog: invalid record")
	ErrDefaultPreset  = errors.New("ridelog: the Default preset cannot be deleted")
	ErrPresetExists   = errors.New("ridelog: preset already exists")
	ErrPresetNotFound = errors.New("ridelog: preset not found")
)

// Profile is the rider and bike document (data/profile.json).
type Profile struct {
	Name       string   `json:"name"`
	Class      string   `json:"class"`
	Make       string   `json:"make"`
	Model      string   `json:"model"`
	Year       string   `json:"year"`
	Engine     string   `json:"engine"`
	TireFront  string   `json:"tireFront"`
	TireRear   string   `json:"tireRear"`
	PsiFront   string   `json:"psiFront"`
	PsiRear    string   `json:"psiRear"`
	SetupNotes string   `json:"setupNotes"`
	Injuries   []Injury `json:"injuries"`
}

// InjuryStatus tracks recovery.
type InjuryStatus string

const (
	InjuryActive    InjuryStatus = "active"
	InjuryRecovered InjuryStatus = "recovered"
	InjuryChronic   InjuryStatus = "chronic"
)

// InjuryStatuses lists the accepted statuses in display order.
func InjuryStatuses() []InjuryStatus {
	return []InjuryStatus{InjuryActive, InjuryRecovered, InjuryChronic}
}

// Injury is one entry in the profile's injury log.
type Injury struct {
	ID          int64        `json:"id"`
	Description string       `json:"desc" validate:"required"`
	Date        string       `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status      InjuryStatus `json:"status" validate:"omitempty,oneof=active recovered chronic"`
	Notes       string       `json:"notes"`
}

// Session is one ride (an element of data/sessions.json).
type Session struct {
	ID         int64   `json:"id"`
	Track      string  `json:"track" validate:"required"`
	Date       string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Hours      float64 `json:"hours" validate:"gt=0"`
	Conditions string  `json:"conditions"`
	Type       string  `json:"type"`
	Notes      string  `json:"notes"`
	Feeling    int     `json:"feeling" validate:"min=0,max=10"`
}

// Snapshot is the full in-memory state of the log.
type Snapshot struct {
	Profile    Profile
	Sessions   []Session
	Suspension Suspension
}

// NewSnapshot returns the state of a log that has never been saved.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Profile:    DefaultProfile(),
		Sessions:   []Session{},
		Suspension: DefaultSuspension(),
	}
}

// DefaultProfile returns an empty profile in the default class.
func DefaultProfile() Profile {
	return Profile{Class: DefaultClass, Injuries: []Injury{}}
}

// ProfileFields carries a partial profile update. Nil fields are left alone.
type ProfileFields struct {
	Name       *string
	Class      *string
	Make       *string
	Model      *string
	Year       *string
	Engine     *string
	TireFront  *string
	TireRear   *string
	PsiFront   *string
	PsiRear    *string
	SetupNotes *string
}

// Update applies every non-nil field of f.
func (p *Profile) Update(f ProfileFields) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&p.Name, f.Name)
	set(&p.Class, f.Class)
	set(&p.Make, f.Make)
	set(&p.Model, f.Model)
	set(&p.Year, f.Year)
	set(&p.Engine, f.Engine)
	set(&p.TireFront, f.TireFront)
	set(&p.TireRear, f.TireRear)
	set(&p.PsiFront, f.PsiFront)
	set(&p.PsiRear, f.PsiRear)
	set(&p.SetupNotes, f.SetupNotes)
}

// AddInjury validates inj, stamps it with an id derived from now, and puts
// it at the front of the injury log. An empty date becomes now's date and
// an empty status becomes active.
func (p *Profile) AddInjury(inj Injury, now time.Time) (Injury, error) {
	if inj.Date == "" {
		inj.Date = now.Format(DateLayout)
	}

	if inj.Status == "" {
		inj.Status = InjuryActive
	}

	if err := validateRecord(inj); err != nil {
		return Injury{}, err
	}

	used := make(map[int64]bool, len(p.Injuries))
	for _, existing := range p.Injuries {
		used[existing.ID] = true
	}

	inj.ID = nextID(now, used)
	p.Injuries = append([]Injury{inj}, p.Injuries...)

	return inj, nil
}

// AddSession validates s, stamps it with an id derived from now, and returns
// sessions with s at the front. An empty date becomes now's date. The input
// slice is not modified.
func AddSession(sessions []Session, s Session, now time.Time) ([]Session, Session, error) {
	if s.Date == "" {
		s.Date = now.Format(DateLayout)
	}

	if err := validateRecord(s); err != nil {
		return sessions, Session{}, err
	}

	used := make(map[int64]bool, len(sessions))
	for _, existing := range sessions {
		used[existing.ID] = true
	}

	s.ID = nextID(now, used)

	out := make([]Session, 0, len(sessions)+1)
	out = append(out, s)
	out = append(out, sessions...)

	return out, s, nil
}

// nextID returns now in Unix milliseconds, bumped past any id in used.
func nextID(now time.Time, used map[int64]bool) int64 {
	id := now.UnixMilli()
	for used[id] {
		id++
	}

	return id
}
