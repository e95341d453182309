package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcoot/territorybattle/internal/api/request"
)

// QueuedGame is one line of the offline queue file
type QueuedGame struct {
	QueuedAt time.Time                 `json:"queued_at"`
	Game     request.SubmitGameRequest `json:"game"`
}

// FlushResult summarises a queue replay
type FlushResult struct {
	Sent     int `json:"sent"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
	// Err is the transport failure that stopped the replay, if any
	Err error `json:"-"`
}

// Queue holds game submissions that could not reach the server, one JSON
// object per line, oldest first
type Queue struct {
	path string
	now  func() time.Time
}

// NewQueue creates a queue backed by the file at path. The file is created on
// first append.
func NewQueue(path string) *Queue {
	return &Queue{path: path, now: time.Now}
}

// Append adds a submission to the end of the queue
func (q *Queue) Append(game request.SubmitGameRequest) error {
	line, err := json.Marshal(QueuedGame{QueuedAt: q.now().UTC(), Game: game})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(q.path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(q.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.Write(append(line, '\n'))
	return err
}

// List returns the queued submissions in order
func (q *Queue) List() ([]QueuedGame, error) {
	f, err := os.Open(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return []QueuedGame{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	entries := []QueuedGame{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 2*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry QueuedGame
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("queue line %d: %w", n, err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Clear drops every queued submission
func (q *Queue) Clear() error {
	err := os.Remove(q.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Flush replays queued submissions in order through submit. Submissions the
// server rejects outright are dropped. Any other failure (unreachable server,
// rate limiting, server error) stops the replay; that entry and everything
// after it stay queued.
func (q *Queue) Flush(submit func(request.SubmitGameRequest) error) (FlushResult, error) {
	entries, err := q.List()
	if err != nil {
		return FlushResult{}, err
	}

	var res FlushResult
	i := 0
	for ; i < len(entries); i++ {
		err := submit(entries[i].Game)
		if err == nil {
			res.Sent++
			continue
		}
		if IsRejected(err) {
			res.Rejected++
			continue
		}
		res.Err = err
		break
	}

	remaining := entries[i:]
	res.Pending = len(remaining)
	return res, q.rewrite(remaining)
}

// rewrite replaces the queue file with entries
func (q *Queue) rewrite(entries []QueuedGame) error {
	if len(entries) == 0 {
		return q.Clear()
	}

	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}
