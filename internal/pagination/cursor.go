// Package pagination implements keyset (cursor) pagination over
// time-ordered collections. Pages are addressed by an opaque token encoding
// the (order_key, id) pair of the last row seen, never by positional
// offset, so sequential pages stay disjoint and contiguous while new rows
// are inserted concurrently.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Limit bounds for a single page.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Direction of a scan relative to the order key.
type Direction string

const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

// Cursor marks a position in a scan: the order key value and the row ID of
// the last item returned. The ID breaks ties between rows sharing the same
// order key value, which makes the ordering a strict total order.
type Cursor struct {
	Time time.Time
	ID   string
}

// UintID parses the cursor row ID as an unsigned integer.
func (c Cursor) UintID() (uint, error) {
	id, err := strconv.ParseUint(c.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor id %q: %w", c.ID, err)
	}
	return uint(id), nil
}

// Encode serializes the cursor into an opaque URL-safe token. The wire
// format is base64("micros::id"); microseconds match the timestamp
// precision of the store, so re-encoding a row's position never drifts.
func Encode(c Cursor) string {
	raw := fmt.Sprintf("%d::%s", c.Time.UnixMicro(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token yields a nil
// cursor, meaning "start from the extreme of the scan direction".
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}
	parts := strings.SplitN(string(raw), "::", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("cursor must be in format 'timestamp::id'")
	}
	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}
	return &Cursor{Time: time.UnixMicro(micros), ID: parts[1]}, nil
}

// Clamp normalizes a caller-supplied page size into [1, MaxLimit],
// substituting DefaultLimit when the caller sent nothing usable.
func Clamp(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Scope returns a gorm scope applying the keyset predicate and ordering for
// one page. The predicate compares the (column, id) tuple against the
// cursor position, so rows inserted after the cursor was issued can never
// be re-fetched or silently skipped.
func Scope(column string, cur *Cursor, dir Direction) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cur != nil {
			id, err := cur.UintID()
			if err != nil {
				db.AddError(err)
				return db
			}
			if dir == Asc {
				db = db.Where(fmt.Sprintf("(%s, id) > (?, ?)", column), cur.Time, id)
			} else {
				db = db.Where(fmt.Sprintf("(%s, id) < (?, ?)", column), cur.Time, id)
			}
		}
		order := "DESC"
		if dir == Asc {
			order = "ASC"
		}
		return db.Order(fmt.Sprintf("%s %s, id %s", column, order, order))
	}
}

// NextToken derives the continuation token from the last item of a page.
// It returns "" unless the page was full, i.e. more data may exist.
func NextToken(lastTime time.Time, lastID string, pageLen, limit int) string {
	if pageLen < limit {
		return ""
	}
	return Encode(Cursor{Time: lastTime, ID: lastID})
}
