package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var (
	ErrWorkWeekProfileNotFound   = errors.New("work week profile not found")
	ErrHolidayProfileNotFound    = errors.New("holiday profile not found")
	ErrLocationCalendarNotFound  = errors.New("location calendar not found")
)

// CalendarRepository handles the working-day kernel's reference data:
// weekly schedules, holiday rule profiles, closures, exceptions and the
// location-to-profile wiring (spec §3, §4.4).
type CalendarRepository struct {
	db *DB
}

func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) GetWorkWeekProfile(ctx context.Context, id uuid.UUID) (*model.WorkWeekProfile, error) {
	var p model.WorkWeekProfile
	err := r.db.GORM.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkWeekProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work week profile: %w", err)
	}
	return &p, nil
}

func (r *CalendarRepository) GetDefaultWorkWeekProfile(ctx context.Context) (*model.WorkWeekProfile, error) {
	var p model.WorkWeekProfile
	err := r.db.GORM.WithContext(ctx).Where("is_default = ?", true).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkWeekProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default work week profile: %w", err)
	}
	return &p, nil
}

func (r *CalendarRepository) ListHolidaysByProfiles(ctx context.Context, profileIDs []uuid.UUID) ([]model.CalendarHoliday, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var holidays []model.CalendarHoliday
	err := r.db.GORM.WithContext(ctx).
		Where("holiday_profile_id IN ?", profileIDs).
		Find(&holidays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar holidays: %w", err)
	}
	return holidays, nil
}

// ListClosuresOverlapping returns closures intersecting [from,to], optionally
// scoped to a department/location (nil scope matches only tenant-wide
// closures, i.e. DepartmentID/LocationID both NULL).
func (r *CalendarRepository) ListClosuresOverlapping(ctx context.Context, from, to time.Time, departmentID, locationID *uuid.UUID) ([]model.CalendarClosure, error) {
	q := r.db.GORM.WithContext(ctx).
		Where("start_date <= ? AND end_date >= ?", to, from)
	if departmentID != nil {
		q = q.Where("department_id IS NULL OR department_id = ?", *departmentID)
	} else {
		q = q.Where("department_id IS NULL")
	}
	if locationID != nil {
		q = q.Where("location_id IS NULL OR location_id = ?", *locationID)
	} else {
		q = q.Where("location_id IS NULL")
	}
	var closures []model.CalendarClosure
	if err := q.Find(&closures).Error; err != nil {
		return nil, fmt.Errorf("failed to list calendar closures: %w", err)
	}
	return closures, nil
}

func (r *CalendarRepository) ListWorkingDayExceptions(ctx context.Context, from, to time.Time, departmentID, locationID *uuid.UUID) ([]model.WorkingDayException, error) {
	q := r.db.GORM.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to)
	if departmentID != nil {
		q = q.Where("department_id IS NULL OR department_id = ?", *departmentID)
	} else {
		q = q.Where("department_id IS NULL")
	}
	if locationID != nil {
		q = q.Where("location_id IS NULL OR location_id = ?", *locationID)
	} else {
		q = q.Where("location_id IS NULL")
	}
	var exceptions []model.WorkingDayException
	if err := q.Find(&exceptions).Error; err != nil {
		return nil, fmt.Errorf("failed to list working day exceptions: %w", err)
	}
	return exceptions, nil
}

// GetLocationCalendar resolves a location's calendar wiring, including its
// subscribed holiday profile ids via the join table. locationID nil looks up
// the tenant-wide default row (LocationID IS NULL).
func (r *CalendarRepository) GetLocationCalendar(ctx context.Context, locationID *uuid.UUID) (*model.LocationCalendar, error) {
	var lc model.LocationCalendar
	q := r.db.GORM.WithContext(ctx)
	if locationID != nil {
		q = q.Where("location_id = ?", *locationID)
	} else {
		q = q.Where("location_id IS NULL")
	}
	if err := q.First(&lc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationCalendarNotFound
		}
		return nil, fmt.Errorf("failed to get location calendar: %w", err)
	}

	var joins []model.LocationCalendarHolidayProfile
	if err := r.db.GORM.WithContext(ctx).
		Where("location_calendar_id = ?", lc.ID).
		Find(&joins).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve holiday profiles: %w", err)
	}
	lc.HolidayProfileIDs = make([]uuid.UUID, 0, len(joins))
	for _, j := range joins {
		lc.HolidayProfileIDs = append(lc.HolidayProfileIDs, j.HolidayProfileID)
	}
	return &lc, nil
}

// SetHolidayProfilesTx replaces a location calendar's subscribed holiday
// profile set.
func (r *CalendarRepository) SetHolidayProfilesTx(ctx context.Context, tx *gorm.DB, locationCalendarID uuid.UUID, profileIDs []uuid.UUID) error {
	if err := tx.WithContext(ctx).
		Where("location_calendar_id = ?", locationCalendarID).
		Delete(&model.LocationCalendarHolidayProfile{}).Error; err != nil {
		return fmt.Errorf("failed to clear holiday profiles: %w", err)
	}
	if len(profileIDs) == 0 {
		return nil
	}
	joins := make([]model.LocationCalendarHolidayProfile, 0, len(profileIDs))
	for _, id := range profileIDs {
		joins = append(joins, model.LocationCalendarHolidayProfile{
			LocationCalendarID: locationCalendarID,
			HolidayProfileID:   id,
		})
	}
	if err := tx.WithContext(ctx).Create(&joins).Error; err != nil {
		return fmt.Errorf("failed to set holiday profiles: %w", err)
	}
	return nil
}
