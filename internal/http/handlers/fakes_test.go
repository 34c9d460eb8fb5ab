package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	"sasbridge/internal/domain"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) GetByAPIKey(_ context.Context, apiKey string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.APIKey == apiKey {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) RotateAPIKey(_ context.Context, userID, newKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.APIKey = newKey
	return nil
}

func (f *fakeUsers) SetMonthlyLimit(_ context.Context, userID string, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.MonthlyLimit = limit
	return nil
}

type fakeProjects struct {
	mu       sync.Mutex
	projects map[string]*domain.Project
}

func newFakeProjects(projects ...*domain.Project) *fakeProjects {
	f := &fakeProjects{projects: map[string]*domain.Project{}}
	for _, p := range projects {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(_ context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id, userID string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok && p.UserID == userID {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjects) Get(_ context.Context, id string) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeProjects) List(_ context.Context, userID string) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Project
	for _, p := range f.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[project.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *project
	f.projects[project.ID] = &clone
	return nil
}

func (f *fakeProjects) Delete(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; ok && p.UserID == userID {
		delete(f.projects, id)
		return nil
	}
	return domain.ErrNotFound
}

func (f *fakeProjects) SetProgress(_ context.Context, id string, status domain.ProjectStatus, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	p.Progress = progress
	return nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[string]*domain.ConversionTask
	stats domain.DashboardStats
}

func newFakeTasks(tasks ...*domain.ConversionTask) *fakeTasks {
	f := &fakeTasks{tasks: map[string]*domain.ConversionTask{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTasks) Create(_ context.Context, task *domain.ConversionTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (*domain.ConversionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tasks[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTasks) ListByProject(_ context.Context, projectID string) ([]domain.ConversionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ConversionTask
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTasks) ClaimNext(_ context.Context, now time.Time) (*domain.ConversionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.Status == domain.TaskStatusPending {
			t.Status = domain.TaskStatusRunning
			t.StartedAt = &now
			clone := *t
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTasks) Finalize(_ context.Context, taskID string, outcome domain.TaskOutcome, finishedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.Status != domain.TaskStatusRunning {
		return domain.ErrNotFound
	}
	t.Status = outcome.Status
	t.TargetCode = outcome.TargetCode
	t.Rationale = outcome.Rationale
	t.ErrorMessage = outcome.ErrorMessage
	t.FinishedAt = &finishedAt
	t.Version++
	return nil
}

func (f *fakeTasks) UpdateReview(_ context.Context, taskID string, status *domain.TaskStatus, targetCode, rationale *string) (*domain.ConversionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if status != nil {
		t.Status = *status
	}
	if targetCode != nil {
		t.TargetCode = targetCode
		t.Version++
	}
	if rationale != nil {
		t.Rationale = *rationale
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTasks) Requeue(_ context.Context, taskID, projectID string) (*domain.ConversionTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.ProjectID != projectID || !t.Status.Terminal() {
		return nil, domain.ErrNotFound
	}
	t.Status = domain.TaskStatusPending
	t.TargetCode = nil
	t.Rationale = ""
	t.ErrorMessage = nil
	t.StartedAt = nil
	t.FinishedAt = nil
	clone := *t
	return &clone, nil
}

func (f *fakeTasks) Progress(_ context.Context, projectID string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, terminal := 0, 0
	for _, t := range f.tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.Status.Terminal() {
			terminal++
		}
	}
	return total, terminal, nil
}

func (f *fakeTasks) Stats(_ context.Context, userID string) (*domain.DashboardStats, error) {
	stats := f.stats
	return &stats, nil
}

func (f *fakeTasks) Recent(_ context.Context, userID string, limit int) ([]domain.ActivityItem, error) {
	return nil, nil
}

// fakeUsage mirrors the conditional-update contract of the real ledger.
type fakeUsage struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{counts: map[string]int{}}
}

func usageKey(userID string, period domain.Period) string {
	return userID + "|" + period.NextReset().Format("2006-01")
}

func (f *fakeUsage) Admit(_ context.Context, userID string, period domain.Period, limit int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := usageKey(userID, period)
	if f.counts[key] >= limit {
		return 0, &domain.RateLimitError{Used: f.counts[key], Limit: limit, ResetAt: period.NextReset()}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeUsage) Current(_ context.Context, userID string, period domain.Period) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[usageKey(userID, period)], nil
}

type fakeWorkflow struct {
	mu    sync.Mutex
	steps map[string]*domain.WorkflowStep
}

func newFakeWorkflow(steps ...*domain.WorkflowStep) *fakeWorkflow {
	f := &fakeWorkflow{steps: map[string]*domain.WorkflowStep{}}
	for _, s := range steps {
		f.steps[s.ID] = s
	}
	return f
}

func (f *fakeWorkflow) CreateAll(_ context.Context, steps []domain.WorkflowStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range steps {
		s := steps[i]
		s.CreatedAt = time.Now()
		s.UpdatedAt = s.CreatedAt
		f.steps[s.ID] = &s
	}
	return nil
}

func (f *fakeWorkflow) ListByProject(_ context.Context, projectID string) ([]domain.WorkflowStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WorkflowStep
	for _, s := range f.steps {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeWorkflow) SetStatus(_ context.Context, stepID, projectID string, status domain.WorkflowStatus) (*domain.WorkflowStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.steps[stepID]
	if !ok || s.ProjectID != projectID {
		return nil, domain.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	clone := *s
	return &clone, nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[string]*domain.Comment
}

func newFakeComments(comments ...*domain.Comment) *fakeComments {
	f := &fakeComments{comments: map[string]*domain.Comment{}}
	for _, c := range comments {
		f.comments[c.ID] = c
	}
	return f
}

func (f *fakeComments) Create(_ context.Context, comment *domain.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment.CreatedAt = time.Now()
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeComments) ListByTask(_ context.Context, taskID string) ([]domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Comment
	for _, c := range f.comments {
		if c.TaskID == taskID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeComments) SetResolved(_ context.Context, commentID, taskID string, resolved bool) (*domain.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok || c.TaskID != taskID {
		return nil, domain.ErrNotFound
	}
	c.Resolved = resolved
	clone := *c
	return &clone, nil
}
