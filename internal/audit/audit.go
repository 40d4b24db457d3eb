// Package audit persists the immutable event log and uploaded evidence
// documents. Rows are append-only; nothing here ever updates or deletes.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is one immutable audit event.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     uint      `gorm:"not null;index" json:"actor"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Entity    string    `gorm:"size:100;not null;index" json:"entity"`
	EntityID  uint      `gorm:"not null;index" json:"entityId"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Document records stored evidence (commission invoices, statements).
// Bytes live on disk under the configured document dir; the row keeps the
// checksum and original name.
type Document struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	FileName   string    `gorm:"size:255;not null" json:"fileName"`
	ContentSHA string    `gorm:"size:64;not null" json:"contentSha"`
	Size       int64     `gorm:"not null" json:"size"`
	UploadedBy uint      `gorm:"not null;index" json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{}, &Document{})
}

// Store appends audit entries and persists documents.
type Store struct {
	DB  *gorm.DB
	Dir string
}

func NewStore(db *gorm.DB, dir string) *Store {
	return &Store{DB: db, Dir: dir}
}

// Append records one audit event. Failures are logged, never propagated:
// the originating financial operation has already committed.
func (s *Store) Append(actor uint, action, entity string, entityID uint, metadata string) {
	e := Entry{Actor: actor, Action: action, Entity: entity, EntityID: entityID, Metadata: metadata}
	if err := s.DB.Create(&e).Error; err != nil {
		log.Printf("audit append failed (%s %s/%d): %v", action, entity, entityID, err)
	}
}

// StoreDocument writes the bytes to disk and records a Document row,
// returning the new document id.
func (s *Store) StoreDocument(content []byte, fileName string, uploadedBy uint) (string, error) {
	id := uuid.NewString()
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.Dir, id), content, 0o644); err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	doc := Document{
		ID:         id,
		FileName:   fileName,
		ContentSHA: hex.EncodeToString(sum[:]),
		Size:       int64(len(content)),
		UploadedBy: uploadedBy,
	}
	if err := s.DB.Create(&doc).Error; err != nil {
		return "", err
	}
	return id, nil
}
