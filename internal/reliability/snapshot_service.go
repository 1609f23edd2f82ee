// Package reliability snapshots the NAV database to object storage.
package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/navstats/internal/database"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const (
	snapshotPrefix    = "navstats-snapshot-"
	snapshotTimestamp = "2006-01-02-150405"
	metadataFile      = "snapshot-metadata.json"
)

// ObjectPutter is the part of the S3 client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotMetadata describes one uploaded snapshot archive
type SnapshotMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	Key       string    `json:"key"`
}

// SnapshotService copies a live database with VACUUM INTO, packs it with a checksum
// manifest into a tar.gz and uploads the archive
type SnapshotService struct {
	db       *database.DB
	client   ObjectPutter
	bucket   string
	prefix   string
	stageDir string
	log      zerolog.Logger
}

// NewSnapshotService creates a snapshot service. prefix is prepended to every object key.
func NewSnapshotService(db *database.DB, client ObjectPutter, bucket, prefix, stageDir string, log zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		db:       db,
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		stageDir: stageDir,
		log:      log.With().Str("service", "snapshot").Logger(),
	}
}

// CreateAndUpload snapshots the database and uploads the archive
func (s *SnapshotService) CreateAndUpload(ctx context.Context) (*SnapshotMetadata, error) {
	start := time.Now()

	stagingDir, err := os.MkdirTemp(s.stageDir, "snapshot-staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	filename := s.db.Name() + ".db"
	dbPath := filepath.Join(stagingDir, filename)
	if _, err := s.db.Conn().ExecContext(ctx, "VACUUM INTO ?", dbPath); err != nil {
		return nil, fmt.Errorf("failed to copy database %s: %w", s.db.Name(), err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat database copy: %w", err)
	}
	checksum, err := calculateChecksum(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	now := time.Now().UTC()
	metadata := &SnapshotMetadata{
		Timestamp: now,
		Database:  s.db.Name(),
		Filename:  filename,
		SizeBytes: info.Size(),
		Checksum:  checksum,
		Key:       s.prefix + snapshotPrefix + now.Format(snapshotTimestamp) + ".tar.gz",
	}

	var archive bytes.Buffer
	if err := writeArchive(&archive, dbPath, filename, metadata); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	size := int64(archive.Len())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(metadata.Key),
		Body:          bytes.NewReader(archive.Bytes()),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/gzip"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot %s: %w", metadata.Key, err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(start)).
		Str("key", metadata.Key).
		Int64("size_bytes", size).
		Msg("Snapshot uploaded")
	return metadata, nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeArchive writes a tar.gz holding the database copy and its metadata
func writeArchive(w io.Writer, dbPath, filename string, metadata *SnapshotMetadata) error {
	gzipWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzipWriter)

	if err := addFileToArchive(tarWriter, dbPath, filename); err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", filename, err)
	}

	manifest, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}
	header := &tar.Header{
		Name:    metadataFile,
		Size:    int64(len(manifest)),
		Mode:    0644,
		ModTime: metadata.Timestamp,
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	if _, err := tarWriter.Write(manifest); err != nil {
		return err
	}

	if err := tarWriter.Close(); err != nil {
		return err
	}
	return gzipWriter.Close()
}

// addFileToArchive adds a single file to a tar archive
func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tarWriter, file)
	return err
}
