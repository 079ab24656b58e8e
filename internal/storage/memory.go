package storage

import (
	"context"
	"sync"

	"github.com/brightpath/orchestrator/internal/domain"
)

// MemoryStore implements Store entirely in-process, sufficient for tests
// and single-instance deployments.
type MemoryStore struct {
	workflows         *memoryWorkflows
	students          *memoryStudents
	learningSessions  *memoryLearningSessions
	progressRecords   *memoryProgressRecords
	assessmentResults *memoryAssessmentResults
	teacherAlerts     *memoryTeacherAlerts
}

// NewMemoryStore builds an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows:         &memoryWorkflows{data: map[string]domain.Workflow{}},
		students:          &memoryStudents{data: map[string]domain.StudentProfile{}},
		learningSessions:  &memoryLearningSessions{data: map[string]LearningSession{}},
		progressRecords:   &memoryProgressRecords{data: map[string][]ProgressRecord{}},
		assessmentResults: &memoryAssessmentResults{data: map[string][]AssessmentResult{}},
		teacherAlerts:     &memoryTeacherAlerts{data: map[string]TeacherAlert{}},
	}
}

func (m *MemoryStore) Workflows() Workflows                 { return m.workflows }
func (m *MemoryStore) Students() Students                   { return m.students }
func (m *MemoryStore) LearningSessions() LearningSessions   { return m.learningSessions }
func (m *MemoryStore) ProgressRecords() ProgressRecords     { return m.progressRecords }
func (m *MemoryStore) AssessmentResults() AssessmentResults { return m.assessmentResults }
func (m *MemoryStore) TeacherAlerts() TeacherAlerts         { return m.teacherAlerts }

type memoryWorkflows struct {
	mu   sync.RWMutex
	data map[string]domain.Workflow
}

func (w *memoryWorkflows) Get(_ context.Context, id string) (domain.Workflow, bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	wf, ok := w.data[id]
	return wf, ok, nil
}

func (w *memoryWorkflows) Create(_ context.Context, wf domain.Workflow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data[wf.ID] = wf
	return nil
}

func (w *memoryWorkflows) Update(ctx context.Context, wf domain.Workflow) error {
	return w.Create(ctx, wf)
}

func (w *memoryWorkflows) Delete(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.data, id)
	return nil
}

func (w *memoryWorkflows) List(_ context.Context) ([]domain.Workflow, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.Workflow, 0, len(w.data))
	for _, wf := range w.data {
		out = append(out, wf)
	}
	return out, nil
}

type memoryStudents struct {
	mu   sync.RWMutex
	data map[string]domain.StudentProfile
}

func (s *memoryStudents) Get(_ context.Context, id string) (domain.StudentProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data[id]
	return p, ok, nil
}

func (s *memoryStudents) Create(_ context.Context, p domain.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[p.ID] = p
	return nil
}

func (s *memoryStudents) Update(ctx context.Context, p domain.StudentProfile) error {
	return s.Create(ctx, p)
}

func (s *memoryStudents) ListByTeacher(_ context.Context, teacherID string) ([]domain.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.StudentProfile
	for _, p := range s.data {
		if p.TeacherID == teacherID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryLearningSessions struct {
	mu   sync.RWMutex
	data map[string]LearningSession
}

func (l *memoryLearningSessions) Create(_ context.Context, s LearningSession) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.data[s.ID] = s
	return nil
}

func (l *memoryLearningSessions) Update(ctx context.Context, s LearningSession) error {
	return l.Create(ctx, s)
}

func (l *memoryLearningSessions) Get(_ context.Context, id string) (LearningSession, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.data[id]
	return s, ok, nil
}

func (l *memoryLearningSessions) ListByStudent(_ context.Context, studentID string) ([]LearningSession, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []LearningSession
	for _, s := range l.data {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memoryProgressRecords struct {
	mu   sync.RWMutex
	data map[string][]ProgressRecord
}

func (p *memoryProgressRecords) Create(_ context.Context, r ProgressRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[r.StudentID] = append(p.data[r.StudentID], r)
	return nil
}

func (p *memoryProgressRecords) ListByStudent(_ context.Context, studentID string) ([]ProgressRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ProgressRecord, len(p.data[studentID]))
	copy(out, p.data[studentID])
	return out, nil
}

type memoryAssessmentResults struct {
	mu   sync.RWMutex
	data map[string][]AssessmentResult
}

func (a *memoryAssessmentResults) Create(_ context.Context, r AssessmentResult) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[r.SessionID] = append(a.data[r.SessionID], r)
	return nil
}

func (a *memoryAssessmentResults) ListBySession(_ context.Context, sessionID string) ([]AssessmentResult, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AssessmentResult, len(a.data[sessionID]))
	copy(out, a.data[sessionID])
	return out, nil
}

type memoryTeacherAlerts struct {
	mu   sync.RWMutex
	data map[string]TeacherAlert
}

func (t *memoryTeacherAlerts) Create(_ context.Context, a TeacherAlert) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data[a.ID] = a
	return nil
}

func (t *memoryTeacherAlerts) ListByTeacher(_ context.Context, teacherID string) ([]TeacherAlert, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []TeacherAlert
	for _, a := range t.data {
		if a.TeacherID == teacherID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (t *memoryTeacherAlerts) Resolve(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.data[id]
	if !ok {
		return nil
	}
	a.Resolved = true
	t.data[id] = a
	return nil
}
