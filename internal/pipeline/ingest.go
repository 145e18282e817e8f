package pipeline

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"videomcq/internal/events"
	"videomcq/internal/store"
	"videomcq/models"
)

// ObjectPath is the key a video file is mirrored under in object storage.
func ObjectPath(v models.Video) string {
	return v.ID + filepath.Ext(v.Filename)
}

// Upload describes a video file already written to local disk.
type Upload struct {
	ID        string
	Filename  string
	Path      string
	SizeBytes int64
}

// Ingest registers an uploaded file as a video with status uploaded. The
// duration is probed when a Prober is configured; a failed probe leaves it
// at zero. When the store also implements store.Objects the file is mirrored
// to it under the video id.
func (o *Orchestrator) Ingest(ctx context.Context, u Upload) (models.Video, error) {
	log := o.logger.WithFields(logrus.Fields{"video_id": u.ID, "filename": u.Filename})

	v := models.Video{
		ID:         u.ID,
		Filename:   u.Filename,
		Filepath:   u.Path,
		Size:       models.HumanSize(u.SizeBytes),
		SizeBytes:  u.SizeBytes,
		UploadedAt: time.Now().UTC(),
		Status:     models.VideoStatusUploaded,
	}
	if o.prober != nil {
		d, err := o.prober.Duration(ctx, u.Path)
		if err != nil {
			log.WithError(err).Warn("Could not probe video duration")
		} else {
			v.Duration = d.Seconds()
		}
	}

	if objects, ok := o.store.(store.Objects); ok {
		if err := o.mirror(ctx, objects, v); err != nil {
			log.WithError(err).Warn("Failed to mirror video to object storage")
		}
	}

	if err := o.store.SaveVideo(ctx, v); err != nil {
		return models.Video{}, fmt.Errorf("pipeline: save video: %w", err)
	}
	o.publish(ctx, events.State(v.ID, models.StageUpload, v.Status, ""))
	log.WithField("duration", v.Duration).Info("Video uploaded")
	return v, nil
}

func (o *Orchestrator) mirror(ctx context.Context, objects store.Objects, v models.Video) error {
	f, err := os.Open(v.Filepath)
	if err != nil {
		return err
	}
	defer f.Close()
	contentType := mime.TypeByExtension(filepath.Ext(v.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return objects.PutObject(ctx, ObjectPath(v), contentType, f)
}
