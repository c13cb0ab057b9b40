package drive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/predichain/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// Syncer mirrors the CSV usage logs of one Drive folder into the upload
// archive, where the ingest pipeline picks them up like any direct upload.
type Syncer struct {
	service *Service
	archive storage.ObjectStorage
}

func NewSyncer(service *Service, archive storage.ObjectStorage) *Syncer {
	return &Syncer{service: service, archive: archive}
}

// archivePrefix namespaces drive-sourced files away from direct uploads.
const archivePrefix = "drive/"

// Sync downloads every CSV under folderPath and archives it. Files already
// present with the same size are skipped. Returns the archive keys written.
func (s *Syncer) Sync(ctx context.Context, folderPath string) ([]string, error) {
	folderID, err := s.service.FindFolderByPath(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	files, err := s.service.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	existing, err := s.archive.ListObjects(ctx, archivePrefix)
	if err != nil {
		return nil, err
	}
	sizeByKey := make(map[string]int64, len(existing))
	for _, obj := range existing {
		sizeByKey[obj.Key] = obj.Size
	}

	var written []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if !strings.EqualFold(path.Ext(f.Name), ".csv") {
			continue
		}

		key := archivePrefix + f.Name
		if size, ok := sizeByKey[key]; ok && size == f.Size {
			continue
		}

		var buf bytes.Buffer
		if err := s.service.DownloadFile(ctx, f.ID, &buf); err != nil {
			return written, fmt.Errorf("sync %s: %w", f.Name, err)
		}
		if err := s.archive.PutObject(ctx, key, buf.Bytes()); err != nil {
			return written, fmt.Errorf("archive %s: %w", f.Name, err)
		}

		log.Info().Str("file", f.Name).Int("bytes", buf.Len()).Msg("drive: archived usage log")
		written = append(written, key)
	}

	return written, nil
}
