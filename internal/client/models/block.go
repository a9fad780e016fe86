package models

import (
	"math"
	"time"
)

// TimestampLayout renders inbox timestamps the way an en-US locale string does.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Block is one stored/shared file event as published by the backend.
type Block struct {
	Timestamp  float64  `json:"timestamp"`
	FileHash   string   `json:"file_hash"`
	KeyHash    string   `json:"key_hash"`
	FileName   string   `json:"file_name"`
	FileSize   int64    `json:"file_size"`
	Owner      string   `json:"owner"`
	FileID     string   `json:"file_id"`
	SharedWith []string `json:"shared_with"`
	PrevHash   string   `json:"prev_hash"`
	Nonce      int64    `json:"nonce"`
	Hash       string   `json:"hash"`
}

// StableID identifies a block across deliveries: its hash, else its file id.
// Empty when the server sent neither.
func (b Block) StableID() string {
	if b.Hash != "" {
		return b.Hash
	}
	return b.FileID
}

// Time converts the epoch-seconds timestamp to a time.Time.
func (b Block) Time() time.Time {
	sec, frac := math.Modf(b.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// InboxEntry is the display row derived from a Block.
type InboxEntry struct {
	ID        string
	Sender    string
	Timestamp string
	FileName  string
}

// NewInboxEntry maps a block into an inbox row, formatting the timestamp in loc.
func NewInboxEntry(b Block, loc *time.Location) InboxEntry {
	if loc == nil {
		loc = time.Local
	}
	return InboxEntry{
		ID:        b.StableID(),
		Sender:    b.Owner,
		Timestamp: b.Time().In(loc).Format(TimestampLayout),
		FileName:  b.FileName,
	}
}

// InboxView is the display projection of the inbox.
type InboxView struct {
	Entries   []InboxEntry
	Empty     bool
	EmptyText string
	Total     int
}
