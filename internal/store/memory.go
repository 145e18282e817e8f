package store

import (
	"context"
	"sort"
	"sync"

	"videomcq/models"
)

type memQuestion struct {
	videoID string
	seq     int
	q       models.MCQQuestion
}

// Memory is a Store kept in process memory. It is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	videos      map[string]models.Video
	transcripts map[string][]models.TranscriptSegment
	questions   map[string]*memQuestion
	jobs        map[string]models.ProcessingJob
	seq         int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		videos:      make(map[string]models.Video),
		transcripts: make(map[string][]models.TranscriptSegment),
		questions:   make(map[string]*memQuestion),
		jobs:        make(map[string]models.ProcessingJob),
	}
}

func (m *Memory) SaveVideo(_ context.Context, v models.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID] = v
	return nil
}

func (m *Memory) GetVideo(_ context.Context, id string) (models.Video, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return v, nil
}

func (m *Memory) ListVideos(_ context.Context) ([]models.VideoSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, mq := range m.questions {
		counts[mq.videoID]++
	}
	out := make([]models.VideoSummary, 0, len(m.videos))
	for _, v := range m.videos {
		out = append(out, models.VideoSummary{
			Video:           v,
			TranscriptCount: len(m.transcripts[v.ID]),
			MCQCount:        counts[v.ID],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

func (m *Memory) UpdateVideoStatus(_ context.Context, id string, status models.VideoStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = status
	m.videos[id] = v
	return nil
}

func (m *Memory) DeleteVideo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[id]; !ok {
		return ErrNotFound
	}
	delete(m.videos, id)
	delete(m.transcripts, id)
	for qid, mq := range m.questions {
		if mq.videoID == id {
			delete(m.questions, qid)
		}
	}
	return nil
}

func (m *Memory) SaveTranscript(_ context.Context, videoID string, segments []models.TranscriptSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[videoID]; !ok {
		return ErrNotFound
	}
	m.transcripts[videoID] = append([]models.TranscriptSegment(nil), segments...)
	return nil
}

func (m *Memory) GetTranscript(_ context.Context, videoID string) ([]models.TranscriptSegment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	segs := append([]models.TranscriptSegment{}, m.transcripts[videoID]...)
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].SegmentNumber < segs[j].SegmentNumber })
	return segs, nil
}

func (m *Memory) SaveMCQs(_ context.Context, videoID string, questions []models.MCQQuestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.videos[videoID]; !ok {
		return ErrNotFound
	}
	for _, q := range questions {
		m.seq++
		q.Options = append([]string(nil), q.Options...)
		m.questions[q.ID] = &memQuestion{videoID: videoID, seq: m.seq, q: q}
	}
	return nil
}

func (m *Memory) ListMCQs(_ context.Context, videoID string) ([]models.MCQQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*memQuestion
	for _, mq := range m.questions {
		if mq.videoID == videoID {
			matched = append(matched, mq)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	out := make([]models.MCQQuestion, len(matched))
	for i, mq := range matched {
		out[i] = mq.q
		out[i].Options = append([]string(nil), mq.q.Options...)
	}
	return out, nil
}

func (m *Memory) GetMCQ(_ context.Context, id string) (models.MCQQuestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mq, ok := m.questions[id]
	if !ok {
		return models.MCQQuestion{}, ErrNotFound
	}
	q := mq.q
	q.Options = append([]string(nil), q.Options...)
	return q, nil
}

func (m *Memory) UpdateMCQ(_ context.Context, id string, patch models.MCQPatch) (models.MCQQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mq, ok := m.questions[id]
	if !ok {
		return models.MCQQuestion{}, ErrNotFound
	}
	updated, err := patch.Apply(mq.q)
	if err != nil {
		return models.MCQQuestion{}, err
	}
	mq.q = updated
	updated.Options = append([]string(nil), updated.Options...)
	return updated, nil
}

func (m *Memory) DeleteMCQ(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *Memory) CreateJob(_ context.Context, job models.ProcessingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) GetJob(_ context.Context, id string) (models.ProcessingJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return models.ProcessingJob{}, ErrNotFound
	}
	return j, nil
}

func (m *Memory) UpdateJob(_ context.Context, job models.ProcessingJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
