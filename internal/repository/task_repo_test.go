package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ventanaops/ventana/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.Carrier{},
		&domain.Client{},
		&domain.Service{},
		&domain.ScheduledTask{},
		&domain.ServiceTaskLink{},
		&domain.PendingService{},
		&domain.Incident{},
		&domain.Camera{},
		&domain.CameraAccess{},
		&domain.Conversation{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }

func TestUpsertCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	params := UpsertParams{
		StartAt:    time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType:   domain.TaskTypeScheduled,
		CarrierID:  uintPtr(1),
		InternalID: strPtr("SWX1234567"),
	}

	task, created, err := repo.Upsert(ctx, params)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !created {
		t.Error("first Upsert() created = false, want true")
	}

	// Same carrier ticket with a moved window must update in place.
	params.StartAt = params.StartAt.Add(24 * time.Hour)
	params.EndAt = params.EndAt.Add(24 * time.Hour)
	again, created, err := repo.Upsert(ctx, params)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if created {
		t.Error("second Upsert() created = true, want false")
	}
	if again.ID != task.ID {
		t.Errorf("second Upsert() id = %d, want %d", again.ID, task.ID)
	}
	if !again.StartAt.Equal(params.StartAt) {
		t.Errorf("StartAt = %v, want %v", again.StartAt, params.StartAt)
	}

	var count int64
	db.Model(&domain.ScheduledTask{}).Count(&count)
	if count != 1 {
		t.Errorf("task rows = %d, want 1", count)
	}
}

func TestUpsertWithoutInternalIDAlwaysCreates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	params := UpsertParams{
		StartAt:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType: domain.TaskTypeScheduled,
	}

	for i := 0; i < 2; i++ {
		if _, created, err := repo.Upsert(ctx, params); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		} else if !created {
			t.Errorf("Upsert() #%d created = false, want true", i+1)
		}
	}

	var count int64
	db.Model(&domain.ScheduledTask{}).Count(&count)
	if count != 2 {
		t.Errorf("task rows = %d, want 2", count)
	}
}

func TestUpsertDistinctCarriersDoNotCollide(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	base := UpsertParams{
		StartAt:    time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType:   domain.TaskTypeScheduled,
		InternalID: strPtr("ID001"),
	}

	a := base
	a.CarrierID = uintPtr(1)
	b := base
	b.CarrierID = uintPtr(2)

	if _, created, err := repo.Upsert(ctx, a); err != nil || !created {
		t.Fatalf("Upsert(a) created=%v err=%v", created, err)
	}
	if _, created, err := repo.Upsert(ctx, b); err != nil || !created {
		t.Fatalf("Upsert(b) created=%v err=%v", created, err)
	}
}

func TestReplaceLinksDeduplicatesPreservingOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task, _, err := repo.Upsert(ctx, UpsertParams{
		StartAt:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType: domain.TaskTypeScheduled,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := repo.ReplaceLinks(ctx, task.ID, []uint{2, 3, 2, 4, 3}); err != nil {
		t.Fatalf("ReplaceLinks() error = %v", err)
	}
	ids, err := repo.LinkedServiceIDs(ctx, task.ID)
	if err != nil {
		t.Fatalf("LinkedServiceIDs() error = %v", err)
	}
	if want := []uint{2, 3, 4}; !reflect.DeepEqual(ids, want) {
		t.Errorf("linked ids = %v, want %v", ids, want)
	}

	// Reprocessing the same email replaces the whole set.
	if err := repo.ReplaceLinks(ctx, task.ID, []uint{5}); err != nil {
		t.Fatalf("second ReplaceLinks() error = %v", err)
	}
	ids, _ = repo.LinkedServiceIDs(ctx, task.ID)
	if want := []uint{5}; !reflect.DeepEqual(ids, want) {
		t.Errorf("linked ids after replace = %v, want %v", ids, want)
	}
}

func TestPendingKeepsDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task, _, err := repo.Upsert(ctx, UpsertParams{
		StartAt:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType: domain.TaskTypeScheduled,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for _, code := range []string{"CRT-999999", "CRT-999999", "CRT-888888"} {
		if err := repo.AddPending(ctx, task.ID, code); err != nil {
			t.Fatalf("AddPending(%q) error = %v", code, err)
		}
	}
	codes, err := repo.PendingCodes(ctx, task.ID)
	if err != nil {
		t.Fatalf("PendingCodes() error = %v", err)
	}
	if want := []string{"CRT-999999", "CRT-999999", "CRT-888888"}; !reflect.DeepEqual(codes, want) {
		t.Errorf("pending codes = %v, want %v", codes, want)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task, _, err := repo.Upsert(ctx, UpsertParams{
		StartAt:  time.Date(2024, 3, 10, 2, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC),
		TaskType: domain.TaskTypeScheduled,
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.ReplaceLinks(ctx, task.ID, []uint{2, 3}); err != nil {
		t.Fatalf("ReplaceLinks() error = %v", err)
	}
	if err := repo.AddPending(ctx, task.ID, "CRT-999999"); err != nil {
		t.Fatalf("AddPending() error = %v", err)
	}

	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for _, model := range []interface{}{
		&domain.ScheduledTask{}, &domain.ServiceTaskLink{}, &domain.PendingService{},
	} {
		var count int64
		db.Model(model).Count(&count)
		if count != 0 {
			t.Errorf("%T rows = %d after delete, want 0", model, count)
		}
	}
}

func TestListUpcomingAndNext(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	windows := []struct {
		start time.Time
		end   time.Time
	}{
		{now.Add(-48 * time.Hour), now.Add(-44 * time.Hour)}, // already closed
		{now.Add(72 * time.Hour), now.Add(76 * time.Hour)},
		{now.Add(24 * time.Hour), now.Add(28 * time.Hour)},
	}
	for _, w := range windows {
		if _, _, err := repo.Upsert(ctx, UpsertParams{
			StartAt: w.start, EndAt: w.end, TaskType: domain.TaskTypeScheduled,
		}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	tasks, err := repo.ListUpcoming(ctx, now, 0)
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("ListUpcoming() = %d tasks, want 2", len(tasks))
	}
	if !tasks[0].StartAt.Before(tasks[1].StartAt) {
		t.Error("ListUpcoming() not ordered by start")
	}

	next, err := repo.NextTask(ctx, now)
	if err != nil {
		t.Fatalf("NextTask() error = %v", err)
	}
	if next == nil || !next.StartAt.Equal(now.Add(24*time.Hour)) {
		t.Errorf("NextTask() = %+v, want the 24h task", next)
	}

	none, err := repo.NextTask(ctx, now.Add(1000*time.Hour))
	if err != nil {
		t.Fatalf("NextTask() far future error = %v", err)
	}
	if none != nil {
		t.Errorf("NextTask() far future = %+v, want nil", none)
	}
}
