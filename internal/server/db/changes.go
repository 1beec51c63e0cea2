package db

import (
	"fmt"
	"strings"
	"time"
)

// Change is one attempted attribute write. Failed writes are recorded too;
// Errno is non-zero when the kernel rejected the request.
type Change struct {
	ID             int64     `json:"id"`
	Option         int       `json:"option"`
	OptionName     string    `json:"option_name"`
	PreviousValue  string    `json:"previous_value"`
	RequestedValue string    `json:"requested_value"`
	Errno          int       `json:"errno"`
	Error          string    `json:"error,omitempty"`
	RemoteAddr     string    `json:"remote_addr,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecordChange appends c to the audit log and sets c.ID.
func (s *Store) RecordChange(c *Change) error {
	res, err := s.db.Exec(
		`INSERT INTO changes (option_index, option_name, previous_value, requested_value, errno, error, remote_addr)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Option, c.OptionName, c.PreviousValue, c.RequestedValue, c.Errno, c.Error, c.RemoteAddr,
	)
	if err != nil {
		return fmt.Errorf("insert change: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return nil
}

// ListChanges returns the most recent changes first. An empty optionName
// lists every option; limit <= 0 means no limit.
func (s *Store) ListChanges(optionName string, limit int) ([]Change, error) {
	query := `SELECT id, option_index, option_name, previous_value, requested_value, errno, error, remote_addr, created_at
		FROM changes`
	var args []any
	if optionName != "" {
		query += ` WHERE option_name = ?`
		args = append(args, strings.ToUpper(optionName))
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.Option, &c.OptionName, &c.PreviousValue, &c.RequestedValue,
			&c.Errno, &c.Error, &c.RemoteAddr, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
