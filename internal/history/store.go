// ============================================================================
// Cicero - Sprachdiktat am Cursor
// ============================================================================
//
// Package:     history
// Description: SQLite-backed history of finished dictation inputs
// Author:      Mike Stoffels
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/cicero/pkg/core/logging"
)

// maxRecords caps the stored history. Older records are dropped when a
// new one pushes past the limit.
const maxRecords = 500

// Record is one finished dictation input.
type Record struct {
	ID                 string    `json:"id"`
	Date               time.Time `json:"date"`
	RawText            string    `json:"raw_text"`
	ProcessedText      string    `json:"processed_text"`
	RawCharCount       int       `json:"raw_char_count"`
	ProcessedCharCount int       `json:"processed_char_count"`
	WasProcessed       bool      `json:"was_processed"`
}

// Stats summarizes the stored history.
type Stats struct {
	TotalInputs         int
	TotalRawChars       int
	TotalProcessedChars int
	CharsSaved          int
	TodayInputs         int
	TodayChars          int
	StreakDays          int
}

// EfficiencyRatio is the share of raw characters the rewrite removed.
func (s Stats) EfficiencyRatio() float64 {
	if s.TotalRawChars == 0 {
		return 0
	}
	return float64(s.CharsSaved) / float64(s.TotalRawChars)
}

// Store persists dictation records in SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *logging.Logger
	now    func() time.Time
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logging.New("history"),
		now:    time.Now,
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS inputs (
		id TEXT PRIMARY KEY,
		date DATETIME NOT NULL,
		raw_text TEXT NOT NULL,
		processed_text TEXT NOT NULL,
		raw_char_count INTEGER NOT NULL,
		processed_char_count INTEGER NOT NULL,
		was_processed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_inputs_date ON inputs(date DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add stores one finished input and prunes beyond the record cap.
// Character counts are rune counts, matching what the user sees.
func (s *Store) Add(ctx context.Context, rawText, processedText string, wasProcessed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		ID:                 uuid.New().String(),
		Date:               s.now(),
		RawText:            rawText,
		ProcessedText:      processedText,
		RawCharCount:       utf8.RuneCountInString(rawText),
		ProcessedCharCount: utf8.RuneCountInString(processedText),
		WasProcessed:       wasProcessed,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inputs (id, date, raw_text, processed_text, raw_char_count, processed_char_count, was_processed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Date, rec.RawText, rec.ProcessedText, rec.RawCharCount, rec.ProcessedCharCount, rec.WasProcessed)
	if err != nil {
		return fmt.Errorf("failed to add record: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM inputs WHERE id NOT IN (
			SELECT id FROM inputs ORDER BY date DESC LIMIT ?
		)
	`, maxRecords)
	if err != nil {
		return fmt.Errorf("failed to prune records: %w", err)
	}

	return tx.Commit()
}

// AddAsync stores a record without blocking the caller. Errors are
// logged, a failed history write never disturbs an insertion.
func (s *Store) AddAsync(rawText, processedText string, wasProcessed bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Add(ctx, rawText, processedText, wasProcessed); err != nil {
			s.logger.Warn("Verlaufseintrag nicht gespeichert", "error", err)
		}
	}()
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, raw_text, processed_text, raw_char_count, processed_char_count, was_processed
		FROM inputs
		ORDER BY date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.RawText, &rec.ProcessedText,
			&rec.RawCharCount, &rec.ProcessedCharCount, &rec.WasProcessed); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecentTexts returns the processed text of the newest records, for
// prompt context.
func (s *Store) RecentTexts(ctx context.Context, limit int) ([]string, error) {
	records, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.ProcessedText
	}
	return texts, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM inputs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM inputs`)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Stats computes history totals and the current day streak. The streak
// counts consecutive calendar days with at least one input, ending
// today; a day without input breaks it.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(raw_char_count), 0), COALESCE(SUM(processed_char_count), 0)
		FROM inputs
	`).Scan(&stats.TotalInputs, &stats.TotalRawChars, &stats.TotalProcessedChars)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute totals: %w", err)
	}
	if saved := stats.TotalRawChars - stats.TotalProcessedChars; saved > 0 {
		stats.CharsSaved = saved
	}

	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(processed_char_count), 0)
		FROM inputs WHERE date >= ?
	`, todayStart).Scan(&stats.TodayInputs, &stats.TodayChars)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute today: %w", err)
	}

	streak, err := s.streak(ctx, todayStart)
	if err != nil {
		return Stats{}, err
	}
	stats.StreakDays = streak

	return stats, nil
}

func (s *Store) streak(ctx context.Context, todayStart time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date FROM inputs ORDER BY date DESC`)
	if err != nil {
		return 0, fmt.Errorf("failed to compute streak: %w", err)
	}
	defer rows.Close()

	days := make(map[time.Time]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, fmt.Errorf("failed to scan date: %w", err)
		}
		local := d.In(todayStart.Location())
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
		days[day] = true
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	streak := 0
	check := todayStart
	for days[check] {
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return streak, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
