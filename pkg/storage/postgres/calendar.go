package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"tickrecorder/internal/calendar"
)

// CalendarRecord is one trading-calendar row as stored in the database.
type CalendarRecord struct {
	ID uint `gorm:"primaryKey"`

	CalendarDate  time.Time `gorm:"not null;uniqueIndex:idx_calendar_date"`
	IsOpen        bool      `gorm:"not null"`
	PrevTradeDate time.Time

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (CalendarRecord) TableName() string {
	return "trade_calendar"
}

// UpsertEntries writes calendar entries, updating is_open and prev_trade_date
// for dates already present. Used by the yearly calendar import.
func (p *PostgresClient) UpsertEntries(ctx context.Context, entries []calendar.Entry) error {
	records := make([]CalendarRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, CalendarRecord{
			CalendarDate:  e.Date,
			IsOpen:        e.IsOpen,
			PrevTradeDate: e.PrevTradeDate,
		})
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "calendar_date"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_open", "prev_trade_date"}),
	}).Create(&records)

	if tx.Error != nil {
		return fmt.Errorf("upsert calendar: %w", tx.Error)
	}
	return nil
}

// LoadCalendar reads the whole trading calendar ordered by date.
func (p *PostgresClient) LoadCalendar(ctx context.Context) (*calendar.Calendar, error) {
	var records []CalendarRecord
	err := p.DB.WithContext(ctx).
		Order("calendar_date asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	entries := make([]calendar.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, calendar.Entry{
			Date:          r.CalendarDate,
			IsOpen:        r.IsOpen,
			PrevTradeDate: r.PrevTradeDate,
		})
	}
	return calendar.New(entries)
}
