package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/daytrack/internal/errors"
	"github.com/julianstephens/daytrack/internal/models"
	"github.com/julianstephens/daytrack/internal/snapshot"
)

func setupEngine(t *testing.T) (*Engine, *snapshot.Backends, context.Context) {
	t.Helper()
	ctx := context.Background()

	backends, err := snapshot.OpenDir(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	engine := NewEngine(backends.Store())
	t.Cleanup(func() {
		engine.Close()
		backends.Close()
	})
	return engine, backends, ctx
}

func sampleTask(id string, updated time.Time) models.Task {
	interval := 3
	minutes := 15.0
	series := "series-1"
	return models.Task{
		ID:             id,
		Title:          "Task " + id,
		Description:    "desc",
		DueDate:        "2024-03-01",
		DueTime:        "09:30",
		Priority:       models.PriorityHigh,
		Status:         models.StatusTodo,
		CategoryID:     "work",
		Reminder:       models.Reminder{Type: models.ReminderCustom, CustomMinutes: &minutes},
		RepeatType:     models.RepeatCustom,
		RepeatInterval: &interval,
		SeriesID:       &series,
		CreatedAt:      updated.Add(-time.Hour),
		UpdatedAt:      updated,
	}
}

func TestInitSeedsFreshDatabase(t *testing.T) {
	engine, backends, ctx := setupEngine(t)

	if err := engine.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	categories, err := engine.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	if len(categories) != len(DefaultCategories) {
		t.Fatalf("expected %d seeded categories, got %d", len(DefaultCategories), len(categories))
	}
	if categories[0].ID != "work" || categories[1].ID != "personal" {
		t.Errorf("unexpected seed order: %v", categories)
	}

	settings, err := engine.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if !reflect.DeepEqual(settings, models.DefaultSettings()) {
		t.Errorf("settings = %+v, want defaults", settings)
	}

	// Fresh databases are persisted immediately, to both backends
	blob, err := backends.Blob.Read(ctx)
	if err != nil || len(blob) == 0 {
		t.Fatalf("expected blob snapshot, got %d bytes, err %v", len(blob), err)
	}
	if _, err := os.Stat(backends.FS.Path()); err != nil {
		t.Errorf("expected filesystem snapshot: %v", err)
	}

	version, err := engine.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 4 {
		t.Errorf("expected schema version 4, got %d", version)
	}
}

func TestConcurrentInitIsCoalesced(t *testing.T) {
	engine, _, ctx := setupEngine(t)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- engine.Init(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Init failed: %v", err)
		}
	}

	categories, err := engine.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	if len(categories) != len(DefaultCategories) {
		t.Errorf("expected categories seeded once, got %d", len(categories))
	}
}

func TestTaskRoundTripAndOrder(t *testing.T) {
	engine, _, ctx := setupEngine(t)
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	older := sampleTask("a", base)
	newer := sampleTask("b", base.Add(time.Minute))
	completed := base.Add(2 * time.Minute)
	newer.Status = models.StatusCompleted
	newer.CompletedAt = &completed

	for _, task := range []models.Task{older, newer} {
		if err := engine.InsertTask(ctx, task); err != nil {
			t.Fatalf("InsertTask failed: %v", err)
		}
	}

	tasks, err := engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != "b" || tasks[1].ID != "a" {
		t.Errorf("expected most recently updated first, got %s, %s", tasks[0].ID, tasks[1].ID)
	}
	if !reflect.DeepEqual(tasks[1], older) {
		t.Errorf("task round trip mismatch:\n got  %+v\n want %+v", tasks[1], older)
	}
	if tasks[0].CompletedAt == nil || !tasks[0].CompletedAt.Equal(completed) {
		t.Errorf("completedAt not preserved: %v", tasks[0].CompletedAt)
	}

	// Upsert replaces the whole row
	older.Title = "renamed"
	older.SeriesID = nil
	if err := engine.InsertTask(ctx, older); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	tasks, err = engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 2 || tasks[1].Title != "renamed" || tasks[1].SeriesID != nil {
		t.Errorf("expected replaced row, got %+v", tasks[1])
	}
}

func TestDeleteCategoryReassignsTasks(t *testing.T) {
	engine, _, ctx := setupEngine(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	work := sampleTask("w", now)
	health := sampleTask("h", now)
	health.CategoryID = "health"
	for _, task := range []models.Task{work, health} {
		if err := engine.InsertTask(ctx, task); err != nil {
			t.Fatalf("InsertTask failed: %v", err)
		}
	}

	if err := engine.DeleteCategoryRow(ctx, "work"); err != nil {
		t.Fatalf("DeleteCategoryRow failed: %v", err)
	}

	tasks, err := engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	got := map[string]string{}
	for _, task := range tasks {
		got[task.ID] = task.CategoryID
	}
	if got["w"] != "personal" || got["h"] != "health" {
		t.Errorf("unexpected categories after delete: %v", got)
	}

	categories, err := engine.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	for _, c := range categories {
		if c.ID == "work" {
			t.Error("work category still present")
		}
	}
}

func TestSubtasksOrderAndCascade(t *testing.T) {
	engine, _, ctx := setupEngine(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := engine.InsertTask(ctx, sampleTask("parent", now)); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	subtasks := []models.Subtask{
		{ID: "s2", TaskID: "parent", Title: "second", Position: 1, CreatedAt: now, UpdatedAt: now},
		{ID: "s1", TaskID: "parent", Title: "first", Position: 0, CreatedAt: now.Add(time.Second), UpdatedAt: now},
		{ID: "other", TaskID: "elsewhere", Title: "other", Position: 0, CreatedAt: now, UpdatedAt: now},
	}
	if err := engine.InsertSubtasks(ctx, subtasks); err != nil {
		t.Fatalf("InsertSubtasks failed: %v", err)
	}

	loaded, err := engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	var order []string
	for _, s := range loaded {
		order = append(order, s.ID)
	}
	if !reflect.DeepEqual(order, []string{"other", "s1", "s2"}) {
		t.Errorf("unexpected subtask order %v", order)
	}

	if err := engine.DeleteTaskRow(ctx, "parent"); err != nil {
		t.Fatalf("DeleteTaskRow failed: %v", err)
	}
	loaded, err = engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "other" {
		t.Errorf("expected only unrelated subtask left, got %+v", loaded)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	engine, _, ctx := setupEngine(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := engine.InsertTask(ctx, sampleTask("a", now)); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if err := engine.InsertSubtask(ctx, models.Subtask{ID: "s", TaskID: "a", Title: "x", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("InsertSubtask failed: %v", err)
	}
	if err := engine.SaveSetting(ctx, "use24h", "true"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}

	before := dumpAll(t, ctx, engine)
	data, err := engine.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}

	// Import into a separate engine and compare
	other, _, _ := setupEngine(t)
	if err := other.ImportSnapshot(ctx, data); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	after := dumpAll(t, ctx, other)
	if !reflect.DeepEqual(before, after) {
		t.Errorf("round trip mismatch:\n before %+v\n after  %+v", before, after)
	}
}

func TestImportCorruptSnapshotKeepsState(t *testing.T) {
	engine, backends, ctx := setupEngine(t)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := engine.InsertTask(ctx, sampleTask("a", now)); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	storedBefore, err := backends.Blob.Read(ctx)
	if err != nil {
		t.Fatalf("blob Read failed: %v", err)
	}

	err = engine.ImportSnapshot(ctx, []byte("definitely not a database"))
	if !errors.Is(err, errors.ErrCorruptSnapshot) {
		t.Fatalf("expected ErrCorruptSnapshot, got %v", err)
	}

	tasks, err := engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "a" {
		t.Errorf("in-memory state changed after failed import: %+v", tasks)
	}
	storedAfter, err := backends.Blob.Read(ctx)
	if err != nil {
		t.Fatalf("blob Read failed: %v", err)
	}
	if string(storedBefore) != string(storedAfter) {
		t.Error("stored snapshot changed after failed import")
	}
}

func TestImportRejectsForeignDatabase(t *testing.T) {
	engine, _, ctx := setupEngine(t)

	path := filepath.Join(t.TempDir(), "foreign.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open foreign db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id TEXT)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	db.Close()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read foreign db: %v", err)
	}

	if err := engine.ImportSnapshot(ctx, data); !errors.Is(err, errors.ErrCorruptSnapshot) {
		t.Errorf("expected ErrCorruptSnapshot, got %v", err)
	}
}

func TestMirrorFollowsSetting(t *testing.T) {
	engine, backends, ctx := setupEngine(t)
	if err := engine.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(backends.FS.Path()); err != nil {
		t.Fatalf("expected mirror with default settings: %v", err)
	}

	if err := engine.SaveSetting(ctx, "opfsEnabled", "false"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}
	if _, err := os.Stat(backends.FS.Path()); !os.IsNotExist(err) {
		t.Errorf("expected mirror removed once disabled, stat err = %v", err)
	}

	if err := engine.SaveSetting(ctx, "opfsEnabled", "true"); err != nil {
		t.Fatalf("SaveSetting failed: %v", err)
	}
	if _, err := os.Stat(backends.FS.Path()); err != nil {
		t.Errorf("expected mirror rewritten once enabled: %v", err)
	}
}

func TestLegacySnapshotMigrates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Snapshot layout from before recurrence, subtask positions and settings
	legacyPath := filepath.Join(dir, "legacy.db")
	db, err := sql.Open("sqlite", legacyPath)
	if err != nil {
		t.Fatalf("failed to open legacy db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE tasks (id TEXT PRIMARY KEY, title TEXT, description TEXT, dueDate TEXT, dueTime TEXT,
			priority TEXT, status TEXT, categoryId TEXT, reminderType TEXT, reminderCustomMinutes INTEGER,
			reminderNotified INTEGER, createdAt TEXT, updatedAt TEXT, completedAt TEXT)`,
		`CREATE TABLE categories (id TEXT PRIMARY KEY, name TEXT, color TEXT, icon TEXT)`,
		`CREATE TABLE subtasks (id TEXT PRIMARY KEY, taskId TEXT, title TEXT, completed INTEGER, createdAt TEXT, updatedAt TEXT)`,
		`INSERT INTO categories VALUES ('personal', 'Personal', '#6366f1', 'User')`,
		`INSERT INTO tasks VALUES ('old', 'Legacy', '', '2024-01-02', '', 'low', 'todo', 'personal', 'none', NULL, 0,
			'2024-01-01T10:00:00.000Z', '2024-01-01T10:00:00.000Z', NULL)`,
		`INSERT INTO subtasks VALUES ('sub', 'old', 'step', 1, '2024-01-01T10:00:00.000Z', '2024-01-01T10:00:00.000Z')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("legacy setup failed on %q: %v", stmt, err)
		}
	}
	db.Close()
	data, err := os.ReadFile(legacyPath)
	if err != nil {
		t.Fatalf("failed to read legacy db: %v", err)
	}

	backends, err := snapshot.OpenDir(ctx, filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	defer backends.Close()
	if err := backends.Blob.Write(ctx, data); err != nil {
		t.Fatalf("failed to seed blob: %v", err)
	}

	engine := NewEngine(backends.Store())
	defer engine.Close()

	tasks, err := engine.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Legacy" || tasks[0].RepeatType != models.RepeatNone {
		t.Errorf("legacy task not preserved: %+v", tasks)
	}

	subtasks, err := engine.LoadSubtasks(ctx)
	if err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	if len(subtasks) != 1 || subtasks[0].Position != 0 || !subtasks[0].Completed {
		t.Errorf("legacy subtask not preserved: %+v", subtasks)
	}

	categories, err := engine.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("existing database should not be reseeded, got %d categories", len(categories))
	}

	raw, err := engine.LoadSettingsMap(ctx)
	if err != nil {
		t.Fatalf("LoadSettingsMap failed: %v", err)
	}
	if len(raw) != 6 || raw["reminderSound"] != "beep" {
		t.Errorf("default settings not inserted: %v", raw)
	}
}

func TestSubscribeReceivesPersistSignal(t *testing.T) {
	engine, _, ctx := setupEngine(t)
	if err := engine.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	changes, cancel := engine.Subscribe()
	defer cancel()

	if err := engine.InsertCategory(ctx, models.Category{ID: "x", Name: "X", Color: "#000000", Icon: "Star"}); err != nil {
		t.Fatalf("InsertCategory failed: %v", err)
	}
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected change signal after persist")
	}
}

type dump struct {
	Tasks      []models.Task
	Categories []models.Category
	Subtasks   []models.Subtask
	Settings   map[string]string
}

func dumpAll(t *testing.T, ctx context.Context, e *Engine) dump {
	t.Helper()
	var d dump
	var err error
	if d.Tasks, err = e.LoadTasks(ctx); err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if d.Categories, err = e.LoadCategories(ctx); err != nil {
		t.Fatalf("LoadCategories failed: %v", err)
	}
	if d.Subtasks, err = e.LoadSubtasks(ctx); err != nil {
		t.Fatalf("LoadSubtasks failed: %v", err)
	}
	if d.Settings, err = e.LoadSettingsMap(ctx); err != nil {
		t.Fatalf("LoadSettingsMap failed: %v", err)
	}
	return d
}

func TestReopenGrowClose(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	// First run seeds and persists
	backends, err := snapshot.OpenDir(ctx, dir)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	first := NewEngine(backends.Store())
	if err := first.InsertTask(ctx, sampleTask("seed", now)); err != nil {
		t.Fatalf("InsertTask failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	backends.Close()

	// Second run loads the stored image, grows it well past its original
	// size, then reloads, imports and closes
	backends, err = snapshot.OpenDir(ctx, dir)
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	defer backends.Close()
	second := NewEngine(backends.Store())

	for i := 0; i < 300; i++ {
		id := "grow-" + strconv.Itoa(i)
		if err := second.InsertTask(ctx, sampleTask(id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("InsertTask %s failed: %v", id, err)
		}
	}

	tasks, err := second.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if len(tasks) != 301 {
		t.Fatalf("expected 301 tasks, got %d", len(tasks))
	}

	if err := second.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	data, err := second.ExportSnapshot(ctx)
	if err != nil {
		t.Fatalf("ExportSnapshot failed: %v", err)
	}
	if err := second.ImportSnapshot(ctx, data); err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if err := second.InsertTask(ctx, sampleTask("after-import", now)); err != nil {
		t.Fatalf("InsertTask after import failed: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
