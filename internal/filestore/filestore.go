// Package filestore persists sessions and pending restorations as YAML
// files: one chestdata/<session id>.yml per session and a single
// pendingRestorations.yml for the restoration queue.
package filestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rpggio/endershare/internal/container"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/repository"
	"github.com/rpggio/endershare/internal/restore"
	"gopkg.in/yaml.v3"
)

const (
	sessionDir       = "chestdata"
	restorationsFile = "pendingRestorations.yml"
	fileMode         = 0o644
	dirMode          = 0o755
)

type sessionFile struct {
	SessionID string            `yaml:"session_id"`
	Player1   string            `yaml:"player1"`
	Player2   string            `yaml:"player2"`
	Inventory map[string]string `yaml:"inventory,omitempty"`
}

// Store is a repository.Store rooted at a data directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

var _ repository.Store = (*Store)(nil)

// New creates a Store rooted at dir, creating the session directory if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Join(dir, sessionDir), dirMode); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) sessionPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", repository.ErrInvalidInput
	}
	return filepath.Join(s.dir, sessionDir, id+".yml"), nil
}

// LoadSessions reads every session file. Files that cannot be parsed are
// logged and skipped.
func (s *Store) LoadSessions(ctx context.Context) ([]share.SessionRecord, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, sessionDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var recs []share.SessionRecord
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yml" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, sessionDir, entry.Name())
		rec, err := readSession(path)
		if err != nil {
			s.logger.Warn("skipping session file", "path", path, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs, nil
}

func readSession(path string) (share.SessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return share.SessionRecord{}, err
	}
	var doc sessionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return share.SessionRecord{}, err
	}
	if doc.SessionID == "" {
		doc.SessionID = strings.TrimSuffix(filepath.Base(path), ".yml")
	}
	rec := share.SessionRecord{
		ID:      doc.SessionID,
		Player1: doc.Player1,
		Player2: doc.Player2,
		Slots:   make(map[int]container.Item),
	}
	for key, raw := range doc.Inventory {
		slot, err := strconv.Atoi(key)
		if err != nil || slot < 0 {
			continue
		}
		item, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			continue
		}
		rec.Slots[slot] = container.Item(item)
	}
	return rec, nil
}

// SaveSession writes the session file, replacing any previous contents.
func (s *Store) SaveSession(ctx context.Context, rec share.SessionRecord) error {
	path, err := s.sessionPath(rec.ID)
	if err != nil {
		return err
	}
	doc := sessionFile{
		SessionID: rec.ID,
		Player1:   rec.Player1,
		Player2:   rec.Player2,
		Inventory: make(map[string]string),
	}
	for slot, item := range rec.Slots {
		if item.Empty() {
			continue
		}
		doc.Inventory[strconv.Itoa(slot)] = base64.StdEncoding.EncodeToString(item)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session file. A missing file is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	path, err := s.sessionPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) readRestorations() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, restorationsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	doc := map[string]string{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]string{}
	}
	return doc, nil
}

func (s *Store) writeRestorations(doc map[string]string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode restorations: %w", err)
	}
	return writeFile(filepath.Join(s.dir, restorationsFile), data)
}

// LoadRestorations reads the restoration document. An unreadable document
// is logged and treated as empty.
func (s *Store) LoadRestorations(ctx context.Context) ([]restore.Record, error) {
	doc, err := s.readRestorations()
	if err != nil {
		s.logger.Warn("skipping restoration file", "path", restorationsFile, "error", err)
		return nil, nil
	}
	recs := make([]restore.Record, 0, len(doc))
	for id, payload := range doc {
		recs = append(recs, restore.Record{ParticipantID: id, Payload: payload})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ParticipantID < recs[j].ParticipantID })
	return recs, nil
}

// SaveRestoration upserts one participant's entry.
func (s *Store) SaveRestoration(ctx context.Context, rec restore.Record) error {
	doc, err := s.readRestorations()
	if err != nil {
		return fmt.Errorf("failed to read restorations: %w", err)
	}
	doc[rec.ParticipantID] = rec.Payload
	return s.writeRestorations(doc)
}

// DeleteRestoration removes one participant's entry.
func (s *Store) DeleteRestoration(ctx context.Context, participantID string) error {
	doc, err := s.readRestorations()
	if err != nil {
		return fmt.Errorf("failed to read restorations: %w", err)
	}
	if _, ok := doc[participantID]; !ok {
		return nil
	}
	delete(doc, participantID)
	return s.writeRestorations(doc)
}

// ReplaceRestorations rewrites the document with exactly recs.
func (s *Store) ReplaceRestorations(ctx context.Context, recs []restore.Record) error {
	doc := make(map[string]string, len(recs))
	for _, rec := range recs {
		doc[rec.ParticipantID] = rec.Payload
	}
	return s.writeRestorations(doc)
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, fileMode); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
