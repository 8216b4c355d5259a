package taskstore

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/snapshot"
	"github.com/julianstephens/daytrack/internal/storage"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func setupStore(t *testing.T) (*Store, *storage.Engine, *fakeClock, context.Context) {
	t.Helper()
	ctx := context.Background()

	backends, err := snapshot.OpenDir(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	engine := storage.NewEngine(backends.Store())

	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	store, err := Open(ctx, engine, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		store.Close(ctx)
		engine.Close()
		backends.Close()
	})
	return store, engine, clock, ctx
}

func checkCompletionInvariant(t *testing.T, tasks []models.Task) {
	t.Helper()
	for _, task := range tasks {
		if (task.CompletedAt != nil) != (task.Status == models.StatusCompleted) {
			t.Errorf("task %s: status=%s completedAt=%v", task.ID, task.Status, task.CompletedAt)
		}
	}
}

func TestAddTaskDefaults(t *testing.T) {
	store, _, clock, _ := setupStore(t)

	first := store.AddTask(models.TaskDraft{Title: "first", DueDate: "2024-03-01"})
	if first.Priority != models.PriorityMedium || first.CategoryID != "personal" {
		t.Errorf("settings defaults not applied: %+v", first)
	}
	if first.Status != models.StatusTodo || first.RepeatType != models.RepeatNone {
		t.Errorf("unexpected status/repeat: %s/%s", first.Status, first.RepeatType)
	}
	if first.CompletedAt != nil {
		t.Error("new task should not be completed")
	}
	if !first.CreatedAt.Equal(clock.t) || !first.UpdatedAt.Equal(clock.t) {
		t.Errorf("timestamps = %v/%v, want %v", first.CreatedAt, first.UpdatedAt, clock.t)
	}

	second := store.AddTask(models.TaskDraft{Title: "second"})
	tasks := store.Tasks()
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Errorf("expected newest first, got %v", tasks)
	}
}

func TestCompletionInvariantAcrossMutations(t *testing.T) {
	store, _, clock, _ := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "t", DueDate: "2024-03-01"})
	inProgress := models.StatusInProgress
	completed := models.StatusCompleted
	todo := models.StatusTodo

	steps := []func(){
		func() { store.UpdateTask(task.ID, models.TaskPatch{Status: &inProgress}) },
		func() { store.UpdateTask(task.ID, models.TaskPatch{Status: &completed}) },
		func() { store.ToggleComplete(task.ID) },
		func() { store.ToggleComplete(task.ID) },
		func() { store.UpdateTask(task.ID, models.TaskPatch{Status: &todo}) },
	}
	for _, step := range steps {
		clock.Advance(time.Minute)
		step()
		checkCompletionInvariant(t, store.Tasks())
	}
}

func TestUpdateTaskKeepsCompletedAtWhileCompleted(t *testing.T) {
	store, _, clock, _ := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "t"})
	_, _, _ = store.ToggleComplete(task.ID)
	done, _ := store.Task(task.ID)

	clock.Advance(time.Hour)
	title := "renamed"
	updated, ok := store.UpdateTask(task.ID, models.TaskPatch{Title: &title})
	if !ok {
		t.Fatal("UpdateTask returned not found")
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(*done.CompletedAt) {
		t.Errorf("completedAt changed: %v -> %v", done.CompletedAt, updated.CompletedAt)
	}
	if !updated.UpdatedAt.Equal(clock.t) {
		t.Errorf("updatedAt = %v, want %v", updated.UpdatedAt, clock.t)
	}

	if _, ok := store.UpdateTask("missing", models.TaskPatch{Title: &title}); ok {
		t.Error("expected unknown id to be skipped")
	}
}

func TestToggleCompleteDailySpawnsSuccessor(t *testing.T) {
	store, _, _, _ := setupStore(t)

	task := store.AddTask(models.TaskDraft{
		Title:      "daily",
		DueDate:    "2024-03-01",
		DueTime:    "08:00",
		RepeatType: models.RepeatDaily,
		Reminder:   models.Reminder{Type: models.Reminder15Min},
	})
	store.MarkNotified(task.ID)

	done, spawned, ok := store.ToggleComplete(task.ID)
	if !ok {
		t.Fatal("ToggleComplete returned not found")
	}
	if done.Status != models.StatusCompleted || done.CompletedAt == nil {
		t.Errorf("source not completed: %+v", done)
	}
	if spawned == nil {
		t.Fatal("expected a successor task")
	}
	if spawned.DueDate != "2024-03-02" || spawned.Status != models.StatusTodo || spawned.CompletedAt != nil {
		t.Errorf("unexpected successor: %+v", spawned)
	}
	if spawned.SeriesID == nil || *spawned.SeriesID != task.ID {
		t.Errorf("successor series = %v, want %s", spawned.SeriesID, task.ID)
	}
	if spawned.Reminder.Notified {
		t.Error("successor reminder should be re-armed")
	}
	if spawned.DueTime != "08:00" || spawned.Title != "daily" {
		t.Errorf("successor lost fields: %+v", spawned)
	}

	tasks := store.Tasks()
	if len(tasks) != 2 || tasks[0].ID != spawned.ID {
		t.Errorf("expected successor at head, got %v", tasks)
	}

	// Un-completing does not spawn
	_, spawned, _ = store.ToggleComplete(task.ID)
	if spawned != nil {
		t.Error("reopening a task should not spawn")
	}
}

func TestToggleCompleteCustomInterval(t *testing.T) {
	store, _, _, _ := setupStore(t)

	interval := 3
	task := store.AddTask(models.TaskDraft{
		Title:          "custom",
		DueDate:        "2024-03-01",
		RepeatType:     models.RepeatCustom,
		RepeatInterval: &interval,
	})
	_, spawned, _ := store.ToggleComplete(task.ID)
	if spawned == nil || spawned.DueDate != "2024-03-04" {
		t.Fatalf("expected successor due 2024-03-04, got %+v", spawned)
	}

	// Series id carries over to later generations
	_, third, _ := store.ToggleComplete(spawned.ID)
	if third == nil || third.SeriesID == nil || *third.SeriesID != task.ID {
		t.Errorf("expected series %s on third instance, got %+v", task.ID, third)
	}
}

func TestToggleCompleteNoDedupe(t *testing.T) {
	store, _, _, _ := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "w", DueDate: "2024-03-01", RepeatType: models.RepeatWeekly})
	store.ToggleComplete(task.ID)
	store.ToggleComplete(task.ID)
	store.ToggleComplete(task.ID)

	if n := len(store.Tasks()); n != 3 {
		t.Errorf("expected 3 tasks after two completions, got %d", n)
	}
}

func TestNextDueDate(t *testing.T) {
	today := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	two, zero := 2, 0
	tests := []struct {
		name     string
		due      string
		repeat   models.RepeatType
		interval *int
		want     string
	}{
		{"daily", "2024-03-01", models.RepeatDaily, nil, "2024-03-02"},
		{"daily across year", "2023-12-31", models.RepeatDaily, nil, "2024-01-01"},
		{"weekly", "2024-03-01", models.RepeatWeekly, nil, "2024-03-08"},
		{"monthly", "2024-03-15", models.RepeatMonthly, nil, "2024-04-15"},
		{"monthly clamps leap", "2024-01-31", models.RepeatMonthly, nil, "2024-02-29"},
		{"monthly clamps", "2023-01-31", models.RepeatMonthly, nil, "2023-02-28"},
		{"monthly december", "2024-12-31", models.RepeatMonthly, nil, "2025-01-31"},
		{"custom", "2024-03-01", models.RepeatCustom, &two, "2024-03-03"},
		{"custom zero", "2024-03-01", models.RepeatCustom, &zero, "2024-03-02"},
		{"custom nil", "2024-03-01", models.RepeatCustom, nil, "2024-03-02"},
		{"missing date", "", models.RepeatDaily, nil, "2024-05-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDueDate(tt.due, tt.repeat, tt.interval, today)
			if got != tt.want {
				t.Errorf("NextDueDate(%q, %s) = %q, want %q", tt.due, tt.repeat, got, tt.want)
			}
		})
	}
}

func TestUpdateTaskRearmsReminder(t *testing.T) {
	store, _, _, _ := setupStore(t)

	task := store.AddTask(models.TaskDraft{
		Title:    "r",
		DueDate:  "2024-03-01",
		DueTime:  "10:00",
		Reminder: models.Reminder{Type: models.Reminder5Min},
	})

	title := "renamed"
	newTime := "11:00"
	tests := []struct {
		name  string
		patch models.TaskPatch
		armed bool
	}{
		{"title only", models.TaskPatch{Title: &title}, false},
		{"due time", models.TaskPatch{DueTime: &newTime}, true},
		{"reminder type", models.TaskPatch{Reminder: &models.Reminder{Type: models.Reminder1Hour, Notified: true}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.MarkNotified(task.ID)
			updated, _ := store.UpdateTask(task.ID, tt.patch)
			if updated.Reminder.Notified == tt.armed {
				t.Errorf("notified = %v, want %v", updated.Reminder.Notified, !tt.armed)
			}
		})
	}
}

func TestDeleteLastCategoryRejected(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	for _, c := range store.Categories()[1:] {
		if err := store.DeleteCategory(c.ID); err != nil {
			t.Fatalf("DeleteCategory(%s) failed: %v", c.ID, err)
		}
	}
	remaining := store.Categories()
	if len(remaining) != 1 {
		t.Fatalf("expected 1 category left, got %d", len(remaining))
	}

	task := store.AddTask(models.TaskDraft{Title: "t", CategoryID: remaining[0].ID})

	err := store.DeleteCategory(remaining[0].ID)
	if !errors.Is(err, errors.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
	if len(store.Categories()) != 1 {
		t.Error("category count changed")
	}
	got, _ := store.Task(task.ID)
	if got.CategoryID != remaining[0].ID {
		t.Errorf("task category changed to %s", got.CategoryID)
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	persisted, err := engine.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	if len(persisted) != 1 {
		t.Errorf("expected 1 persisted category, got %d", len(persisted))
	}
}

func TestDeleteCategoryReassignsToPersonal(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	a := store.AddTask(models.TaskDraft{Title: "a", CategoryID: "work"})
	b := store.AddTask(models.TaskDraft{Title: "b", CategoryID: "work"})
	c := store.AddTask(models.TaskDraft{Title: "c", CategoryID: "health"})

	if err := store.DeleteCategory("work"); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		task, _ := store.Task(id)
		if task.CategoryID != "personal" {
			t.Errorf("task %s category = %s, want personal", id, task.CategoryID)
		}
	}
	if task, _ := store.Task(c.ID); task.CategoryID != "health" {
		t.Errorf("unrelated task moved to %s", task.CategoryID)
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	tasks, err := engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	for _, task := range tasks {
		if task.CategoryID == "work" {
			t.Errorf("persisted task %s still in work", task.ID)
		}
	}
}

func TestCategoryAddUpdate(t *testing.T) {
	store, _, _, _ := setupStore(t)

	c := store.AddCategory("Errands", "#111111", "Car")
	updated, ok := store.UpdateCategory(c.ID, func(c *models.Category) { c.Name = "Chores"; c.ID = "ignored" })
	if !ok || updated.Name != "Chores" || updated.ID != c.ID {
		t.Errorf("unexpected update result %+v", updated)
	}
	if got, _ := store.Category(c.ID); got.Name != "Chores" {
		t.Errorf("category not updated in memory: %+v", got)
	}
	if _, ok := store.UpdateCategory("missing", func(*models.Category) {}); ok {
		t.Error("expected unknown category to be skipped")
	}
}

func subtaskTitles(list []models.Subtask) []string {
	var out []string
	for _, st := range list {
		out = append(out, st.Title)
	}
	return out
}

func TestReorderSubtasks(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "parent"})
	for _, title := range []string{"A", "B", "C"} {
		store.AddSubtask(task.ID, title)
	}

	if !store.ReorderSubtasks(task.ID, 0, 2) {
		t.Fatal("ReorderSubtasks returned false")
	}
	list := store.Subtasks(task.ID)
	if got := subtaskTitles(list); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("order = %v, want [B C A]", got)
	}
	for i, st := range list {
		if st.Position != i {
			t.Errorf("%s position = %d, want %d", st.Title, st.Position, i)
		}
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	persisted, err := engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	positions := map[string]int{}
	for _, st := range persisted {
		positions[st.Title] = st.Position
	}
	if !reflect.DeepEqual(positions, map[string]int{"B": 0, "C": 1, "A": 2}) {
		t.Errorf("persisted positions = %v", positions)
	}

	// Out of range is a no-op
	if store.ReorderSubtasks(task.ID, 0, 3) || store.ReorderSubtasks(task.ID, -1, 0) {
		t.Error("expected out-of-range reorder to be rejected")
	}
	if got := subtaskTitles(store.Subtasks(task.ID)); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("order changed by rejected reorder: %v", got)
	}
}

func TestDeleteSubtaskKeepsPositionsDense(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "parent"})
	var ids []string
	for _, title := range []string{"A", "B", "C", "D"} {
		ids = append(ids, store.AddSubtask(task.ID, title).ID)
	}

	if _, ok := store.ToggleSubtask(task.ID, ids[2]); !ok {
		t.Fatal("ToggleSubtask returned false")
	}
	if !store.DeleteSubtask(task.ID, ids[1]) {
		t.Fatal("DeleteSubtask returned false")
	}

	list := store.Subtasks(task.ID)
	if got := subtaskTitles(list); !reflect.DeepEqual(got, []string{"A", "C", "D"}) {
		t.Errorf("order = %v", got)
	}
	for i, st := range list {
		if st.Position != i {
			t.Errorf("%s position = %d, want %d", st.Title, st.Position, i)
		}
	}
	if !list[1].Completed {
		t.Error("toggle lost after delete")
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	persisted, err := engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	if got := subtaskTitles(persisted); !reflect.DeepEqual(got, []string{"A", "C", "D"}) {
		t.Errorf("persisted order = %v", got)
	}
}

func TestDeleteTaskCascadesSubtasks(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	task := store.AddTask(models.TaskDraft{Title: "parent"})
	store.AddSubtask(task.ID, "child")

	if !store.DeleteTask(task.ID) {
		t.Fatal("DeleteTask returned false")
	}
	if _, ok := store.Task(task.ID); ok {
		t.Error("task still in memory")
	}
	if len(store.Subtasks(task.ID)) != 0 {
		t.Error("subtasks still in memory")
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	persisted, err := engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("expected no persisted subtasks, got %d", len(persisted))
	}
}

func TestUpdateSetting(t *testing.T) {
	store, engine, _, ctx := setupStore(t)

	settings, err := store.UpdateSetting("use24h", "true")
	if err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if !settings.Use24h || !store.Settings().Use24h {
		t.Error("use24h not applied")
	}

	if _, err := store.UpdateSetting("use24h", "yes"); err == nil {
		t.Error("expected error for non-boolean value")
	}
	if _, err := store.UpdateSetting("unknown", "x"); err == nil {
		t.Error("expected error for unknown key")
	}

	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	persisted, err := engine.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !persisted.Use24h {
		t.Error("use24h not persisted")
	}
}

func TestReloadMatchesMemory(t *testing.T) {
	store, _, clock, ctx := setupStore(t)

	interval := 2
	a := store.AddTask(models.TaskDraft{Title: "a", DueDate: "2024-03-01", RepeatType: models.RepeatCustom, RepeatInterval: &interval})
	clock.Advance(time.Minute)
	store.ToggleComplete(a.ID)
	store.AddSubtask(a.ID, "step")

	before := store.Tasks()
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	after := store.Tasks()

	if len(before) != len(after) {
		t.Fatalf("task count changed: %d -> %d", len(before), len(after))
	}
	byID := map[string]models.Task{}
	for _, task := range after {
		byID[task.ID] = task
	}
	for _, task := range before {
		got, ok := byID[task.ID]
		if !ok {
			t.Errorf("task %s missing after reload", task.ID)
			continue
		}
		if got.Status != task.Status || got.DueDate != task.DueDate || !got.UpdatedAt.Equal(task.UpdatedAt) {
			t.Errorf("task %s differs after reload: %+v vs %+v", task.ID, got, task)
		}
	}
	if len(store.Subtasks(a.ID)) != 1 {
		t.Error("subtasks lost on reload")
	}
	checkCompletionInvariant(t, after)
}

type failingRepo struct {
	storage.Repository
}

func (failingRepo) InsertTask(context.Context, models.Task) error {
	return fmt.Errorf("disk full")
}

func TestPersistenceErrorsAreReported(t *testing.T) {
	_, engine, _, ctx := setupStore(t)

	store, err := Open(ctx, failingRepo{Repository: engine})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close(ctx)

	task := store.AddTask(models.TaskDraft{Title: "kept in memory"})
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	select {
	case err := <-store.Errors():
		if err == nil {
			t.Error("expected an error")
		}
	case <-time.After(time.Second):
		t.Fatal("expected persistence error to be reported")
	}
	if _, ok := store.Task(task.ID); !ok {
		t.Error("optimistic task should remain in memory")
	}
}
