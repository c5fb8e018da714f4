package mergequeue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotRecord is the JSON representation of a queue entry in the queue
// snapshot file.
type SnapshotRecord struct {
	Num         int    `json:"num"`
	SrcOwner    string `json:"src_owner"`
	SrcRepo     string `json:"src_repo"`
	Ref         string `json:"ref"`
	Title       string `json:"title"`
	State       string `json:"state"`
	Prio        int    `json:"prio"`
	NumComments int    `json:"num_comments"`
	// LastComment is the newest comment of the entry, null when it has
	// none.
	LastComment *CommentTuple `json:"last_comment"`
}

// CommentTuple marshals a comment as the triple [timestamp, author, body].
type CommentTuple struct {
	CreatedAt time.Time
	Author    string
	Body      string
}

func (c *CommentTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.CreatedAt.UTC().Format(time.RFC3339), c.Author, c.Body})
}

// snapshotRecord returns the JSON record of the entry.
func (e *QueueEntry) snapshotRecord() *SnapshotRecord {
	record := SnapshotRecord{
		Num:         e.Number,
		SrcOwner:    e.SourceOwner,
		SrcRepo:     e.SourceRepo,
		Ref:         e.Ref,
		Title:       e.Title,
		State:       string(e.State),
		Prio:        e.Priority,
		NumComments: e.CommentsTotal,
	}

	if len(e.Comments) > 0 {
		last := e.Comments[len(e.Comments)-1]
		record.LastComment = &CommentTuple{
			CreatedAt: last.CreatedAt,
			Author:    last.Author,
			Body:      last.Body,
		}
	}

	return &record
}

// WriteSnapshotFile writes the records as a JSON array to path. The file is
// replaced atomically, readers never observe a partially written snapshot.
func WriteSnapshotFile(path string, records []*SnapshotRecord) error {
	if records == nil {
		records = []*SnapshotRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling queue snapshot failed: %w", err)
	}

	data = append(data, '\n')

	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing queue snapshot file failed: %w", err)
	}

	return nil
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}

	_, writeErr := tmp.Write(data)

	if err := tmp.Close(); writeErr == nil {
		writeErr = err
	}

	if writeErr == nil {
		writeErr = os.Chmod(tmp.Name(), 0o644)
	}

	if writeErr == nil {
		writeErr = os.Rename(tmp.Name(), path)
	}

	if writeErr != nil {
		os.Remove(tmp.Name())
		return writeErr
	}

	return nil
}
