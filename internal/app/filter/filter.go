// Package filter narrows and orders student lists for the dashboard and exports.
// Every function is pure: the same records, criteria and clock give the same result.
package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/yigit/examprogress/internal/app/models"
)

// Progress buckets
const (
	ProgressAll        = "all"
	ProgressCompleted  = "completed"
	ProgressInProgress = "in_progress"
	ProgressPending    = "pending"
)

// Quick ranges, relative to now
const (
	RangeAll        = "all"
	RangeToday      = "today"
	RangeThisWeek   = "this_week"
	RangeThisMonth  = "this_month"
	RangeLast30Days = "last_30_days"
	RangeThisYear   = "this_year"
	Range7Days      = "7days"
	Range30Days     = "30days"
	Range3Months    = "3months"
	Range6Months    = "6months"
	Range1Year      = "1year"
)

// StageAll disables the stage predicate.
const StageAll = "all"

// DefaultSearchFields are searched when the caller names none.
var DefaultSearchFields = []string{"nim", "name", "thesis_title", "supervisor_1", "supervisor_2"}

// DefaultDateField is the column date predicates apply to when none is given.
const DefaultDateField = "created_at"

// Criteria is the full filter state. Zero values disable each predicate.
type Criteria struct {
	Search       string
	SearchFields []string
	Stage        string
	Progress     string
	Year         string
	ProgramStudi string
	QuickRange   string
	DateFrom     *time.Time
	DateTo       *time.Time
	DateField    string
}

// Normalize applies defaults and clears the explicit range when a quick range is set,
// so the two date predicates never combine.
func (c Criteria) Normalize() Criteria {
	c.Search = strings.TrimSpace(c.Search)
	if len(c.SearchFields) == 0 {
		c.SearchFields = DefaultSearchFields
	}
	if c.DateField == "" {
		c.DateField = DefaultDateField
	}
	if c.QuickRange != "" && c.QuickRange != RangeAll {
		c.DateFrom = nil
		c.DateTo = nil
	}
	return c
}

// Apply returns the records matching every active predicate, in input order.
func Apply(records []models.Student, c Criteria, now time.Time) []models.Student {
	c = c.Normalize()
	search := strings.ToLower(c.Search)
	rangeStart, hasRange := QuickRangeStart(c.QuickRange, now)

	out := make([]models.Student, 0, len(records))
	for i := range records {
		s := &records[i]
		if search != "" && !matchesSearch(s, search, c.SearchFields) {
			continue
		}
		if !matchesStage(s, c.Stage) {
			continue
		}
		if !matchesProgress(s, c.Progress) {
			continue
		}
		if c.Year != "" {
			if year, ok := s.AcademicYear(); !ok || year != c.Year {
				continue
			}
		}
		if c.ProgramStudi != "" && (s.ProgramStudi == nil || *s.ProgramStudi != c.ProgramStudi) {
			continue
		}
		if hasRange || c.DateFrom != nil || c.DateTo != nil {
			d, ok := dateOf(s, c.DateField)
			if !ok {
				continue
			}
			if hasRange && d.Before(rangeStart) {
				continue
			}
			if c.DateFrom != nil && d.Before(*c.DateFrom) {
				continue
			}
			if c.DateTo != nil && d.After(*c.DateTo) {
				continue
			}
		}
		out = append(out, *s)
	}
	return out
}

func matchesSearch(s *models.Student, term string, fields []string) bool {
	for _, field := range fields {
		if v, ok := s.FieldValue(field); ok && strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// matchesStage keeps records that have not progressed past the selected stage.
// Records without any stage never match a specific stage.
func matchesStage(s *models.Student, stage string) bool {
	if stage == "" || stage == StageAll {
		return true
	}
	selected := models.Stage(stage).Index()
	if selected < 0 {
		return true
	}
	reached := s.HighestStage().Index()
	return reached >= 0 && reached <= selected
}

// matchesProgress buckets on stage dates only, independent of is_completed.
func matchesProgress(s *models.Student, progress string) bool {
	switch progress {
	case ProgressCompleted:
		return s.CompletedStages() == len(models.Stages)
	case ProgressInProgress:
		return !s.HasStage(models.StageUK) &&
			(s.HasStage(models.StageUJ3) || s.HasStage(models.StageSUP) || s.HasStage(models.StageSHP))
	case ProgressPending:
		return s.CompletedStages() == 0
	default:
		return true
	}
}

func dateOf(s *models.Student, field string) (time.Time, bool) {
	v, ok := s.FieldValue(field)
	if !ok {
		return time.Time{}, false
	}
	return models.ParseDate(v)
}

// QuickRangeStart returns the inclusive lower bound of a named range.
func QuickRangeStart(name string, now time.Time) (time.Time, bool) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch name {
	case RangeToday:
		return startOfDay, true
	case RangeThisWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return startOfDay.AddDate(0, 0, -offset), true
	case RangeThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case RangeThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	case RangeLast30Days, Range30Days:
		return now.AddDate(0, 0, -30), true
	case Range7Days:
		return now.AddDate(0, 0, -7), true
	case Range3Months:
		return now.AddDate(0, -3, 0), true
	case Range6Months:
		return now.AddDate(0, -6, 0), true
	case Range1Year:
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// Sort keys
const (
	SortByName      = "name"
	SortByNIM       = "nim"
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByProgress  = "progress"
)

// Sort orders records in place by key. Unknown keys fall back to name.
// The sort is stable so equal keys keep their input order.
func Sort(records []models.Student, key string, desc bool) {
	less := lessFunc(key)
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return less(&records[j], &records[i])
		}
		return less(&records[i], &records[j])
	})
}

func lessFunc(key string) func(a, b *models.Student) bool {
	switch key {
	case SortByNIM:
		return func(a, b *models.Student) bool { return a.NIM < b.NIM }
	case SortByProgress:
		return func(a, b *models.Student) bool { return a.ProgressPercent() < b.ProgressPercent() }
	case SortByCreatedAt, SortByUpdatedAt:
		return func(a, b *models.Student) bool {
			av, _ := dateOf(a, key)
			bv, _ := dateOf(b, key)
			return av.Before(bv)
		}
	default:
		return func(a, b *models.Student) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
}

// AvailableYears lists the distinct academic years, newest first.
func AvailableYears(records []models.Student) []string {
	seen := map[string]struct{}{}
	years := []string{}
	for i := range records {
		if y, ok := records[i].AcademicYear(); ok {
			if _, dup := seen[y]; !dup {
				seen[y] = struct{}{}
				years = append(years, y)
			}
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// AvailablePrograms lists the distinct non-empty study programs, alphabetically.
func AvailablePrograms(records []models.Student) []string {
	seen := map[string]struct{}{}
	programs := []string{}
	for i := range records {
		p := records[i].ProgramStudi
		if p == nil || *p == "" {
			continue
		}
		if _, dup := seen[*p]; !dup {
			seen[*p] = struct{}{}
			programs = append(programs, *p)
		}
	}
	sort.Strings(programs)
	return programs
}
