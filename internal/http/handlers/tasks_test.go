package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sasbridge/internal/domain"
)

func taskFixture(status domain.TaskStatus) (*domain.User, *App, *fakeTasks) {
	user := testUser()
	project := &domain.Project{ID: "p1", UserID: user.ID, Status: domain.ProjectStatusReviewing}
	task := &domain.ConversionTask{
		ID:         "t1",
		ProjectID:  "p1",
		FileName:   "load.sas",
		SourceCode: "data out; set in; run;",
		Status:     status,
		Version:    1,
	}
	tasks := newFakeTasks(task)
	app := projectApp(user, newFakeProjects(project), tasks)
	return user, app, tasks
}

func TestTasksGetWithComments(t *testing.T) {
	user, app, _ := taskFixture(domain.TaskStatusCompleted)
	app.Comments = newFakeComments(&domain.Comment{ID: "c1", TaskID: "t1", Author: user.Email, Content: "check join"})

	rr := httptest.NewRecorder()
	app.TasksGet(rr, withURLParam(authedRequest("GET", "/api/tasks/t1", "", user), "id", "t1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var payload struct {
		Task     taskDTO      `json:"task"`
		Comments []commentDTO `json:"comments"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Task.ID != "t1" || len(payload.Comments) != 1 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestTasksUpdateReviewerEdit(t *testing.T) {
	user, app, tasks := taskFixture(domain.TaskStatusCompletedFallback)

	rr := httptest.NewRecorder()
	app.TasksUpdate(rr, withURLParam(authedRequest("PATCH", "/api/tasks/t1",
		`{"status":"completed","target_code":"SELECT 1;","rationale":"hand-fixed"}`, user), "id", "t1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	stored, err := tasks.GetByID(authedRequest("GET", "/", "", nil).Context(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Fatalf("status = %q", stored.Status)
	}
	if stored.TargetCode == nil || *stored.TargetCode != "SELECT 1;" {
		t.Fatalf("target code = %v", stored.TargetCode)
	}
	if stored.Version != 2 {
		t.Fatalf("version = %d, want bump to 2", stored.Version)
	}
}

func TestTasksUpdateRejectsNonTerminal(t *testing.T) {
	cases := []struct {
		name   string
		status domain.TaskStatus
		body   string
		code   int
	}{
		{name: "running_task", status: domain.TaskStatusRunning, body: `{"rationale":"x"}`, code: http.StatusConflict},
		{name: "pending_task", status: domain.TaskStatusPending, body: `{"rationale":"x"}`, code: http.StatusConflict},
		{name: "non_terminal_target_status", status: domain.TaskStatusCompleted, body: `{"status":"running"}`, code: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user, app, _ := taskFixture(tc.status)
			rr := httptest.NewRecorder()
			app.TasksUpdate(rr, withURLParam(authedRequest("PATCH", "/api/tasks/t1", tc.body, user), "id", "t1"))
			if rr.Code != tc.code {
				t.Fatalf("status = %d, want %d", rr.Code, tc.code)
			}
		})
	}
}

func TestCommentsCreateAndResolve(t *testing.T) {
	user, app, _ := taskFixture(domain.TaskStatusCompleted)

	rr := httptest.NewRecorder()
	app.CommentsCreate(rr, withURLParam(authedRequest("POST", "/api/tasks/t1/comments",
		`{"content":"alias the subquery","line_number":4}`, user), "id", "t1"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var created commentDTO
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Author != user.Email || created.LineNumber == nil || *created.LineNumber != 4 {
		t.Fatalf("comment = %+v", created)
	}

	rr = httptest.NewRecorder()
	req := withURLParam(authedRequest("PATCH", "/api/tasks/t1/comments/"+created.ID, `{"resolved":true}`, user),
		"id", "t1", "commentID", created.ID)
	app.CommentsResolve(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("resolve status = %d: %s", rr.Code, rr.Body.String())
	}
	var resolved commentDTO
	if err := json.NewDecoder(rr.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resolved.Resolved {
		t.Fatal("comment not resolved")
	}
}

func TestCommentsResolveForeignCommentUntouched(t *testing.T) {
	// Caller owns t1; the comment hangs off another user's task. The request
	// must 404 without flipping the flag.
	user, app, _ := taskFixture(domain.TaskStatusCompleted)
	foreign := &domain.Comment{ID: "c-other", TaskID: "t-other", Author: "bob@example.com", Content: "private note"}
	comments := newFakeComments(foreign)
	app.Comments = comments

	rr := httptest.NewRecorder()
	app.CommentsResolve(rr, withURLParam(authedRequest("PATCH", "/api/tasks/t1/comments/c-other",
		`{"resolved":true}`, user), "id", "t1", "commentID", "c-other"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	stored, err := comments.ListByTask(context.Background(), "t-other")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Resolved {
		t.Fatalf("foreign comment mutated: %+v", stored)
	}
}

func TestCommentsCreateRequiresContent(t *testing.T) {
	user, app, _ := taskFixture(domain.TaskStatusCompleted)
	rr := httptest.NewRecorder()
	app.CommentsCreate(rr, withURLParam(authedRequest("POST", "/api/tasks/t1/comments",
		`{"content":"   "}`, user), "id", "t1"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestTasksRegenerate(t *testing.T) {
	user := testUser()
	project := &domain.Project{ID: "p1", UserID: user.ID, Status: domain.ProjectStatusReviewing}
	code := "SELECT 1;"
	msg := "translate: model timeout"
	tasks := newFakeTasks(&domain.ConversionTask{
		ID:           "t1",
		ProjectID:    "p1",
		FileName:     "load.sas",
		SourceCode:   "data out; set in; run;",
		Status:       domain.TaskStatusFailed,
		TargetCode:   &code,
		Rationale:    "partial output before the timeout",
		ErrorMessage: &msg,
		Version:      1,
	})
	app := projectApp(user, newFakeProjects(project), tasks)

	rr := httptest.NewRecorder()
	app.TasksRegenerate(rr, withURLParam(authedRequest("POST", "/api/tasks/t1/regenerate", "", user), "id", "t1"))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var requeued taskDTO
	if err := json.NewDecoder(rr.Body).Decode(&requeued); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if requeued.Status != string(domain.TaskStatusPending) {
		t.Fatalf("status = %q, want pending", requeued.Status)
	}
	if requeued.TargetCode != nil || requeued.Rationale != "" || requeued.ErrorMessage != nil {
		t.Fatalf("outcome not cleared: %+v", requeued)
	}
	stored, err := tasks.GetByID(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusPending || stored.TargetCode != nil {
		t.Fatalf("stored task not reset: status=%q target=%v", stored.Status, stored.TargetCode)
	}

	// A pending task cannot be re-queued again.
	rr = httptest.NewRecorder()
	app.TasksRegenerate(rr, withURLParam(authedRequest("POST", "/api/tasks/t1/regenerate", "", user), "id", "t1"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("second regenerate status = %d, want 409", rr.Code)
	}
}

func TestTasksRegenerateRunningConflicts(t *testing.T) {
	user, app, _ := taskFixture(domain.TaskStatusRunning)
	rr := httptest.NewRecorder()
	app.TasksRegenerate(rr, withURLParam(authedRequest("POST", "/api/tasks/t1/regenerate", "", user), "id", "t1"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}
