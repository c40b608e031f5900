package service

import (
	"errors"
	"testing"

	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newNoteServiceForTest(db *gorm.DB) *NoteService {
	return NewNoteService(
		repository.NewNoteRepository(db),
		repository.NewResourceRepository(db),
		zap.NewNop(),
	)
}

func TestSaveNotesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newNoteServiceForTest(db)

	saved, err := svc.SaveNotes(f.Student.ID, f.Resource.ID, "hello world 你好")
	if err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if saved.WordCount != 3 {
		t.Fatalf("word count = %d, want 3", saved.WordCount)
	}
	if saved.CharacterCount != 14 {
		t.Fatalf("character count = %d, want 14", saved.CharacterCount)
	}

	got, err := svc.GetNotes(f.Student.ID, f.Resource.ID)
	if err != nil {
		t.Fatalf("get notes: %v", err)
	}
	if got.Content != "hello world 你好" {
		t.Fatalf("content = %q", got.Content)
	}
}

func TestGetNotesBeforeFirstSave(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newNoteServiceForTest(db)

	got, err := svc.GetNotes(f.Student.ID, f.Resource.ID)
	if err != nil {
		t.Fatalf("get notes: %v", err)
	}
	if got.Content != "" || got.WordCount != 0 {
		t.Fatalf("unsaved notes must come back empty: %+v", got)
	}
}

func TestSaveNotesOverwriteKeepsGrade(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newNoteServiceForTest(db)

	first, err := svc.SaveNotes(f.Student.ID, f.Resource.ID, "draft one")
	if err != nil {
		t.Fatalf("save notes: %v", err)
	}
	if _, err := svc.GradeNote(f.Teacher.ID, first.ID, GradeNoteRequest{Grade: 85, Feedback: "不错"}); err != nil {
		t.Fatalf("grade note: %v", err)
	}

	if _, err := svc.SaveNotes(f.Student.ID, f.Resource.ID, "draft two, longer"); err != nil {
		t.Fatalf("re-save notes: %v", err)
	}

	got, err := svc.GetNotes(f.Student.ID, f.Resource.ID)
	if err != nil {
		t.Fatalf("get notes: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("overwrite must reuse the row, id %d -> %d", first.ID, got.ID)
	}
	if got.Content != "draft two, longer" {
		t.Fatalf("content = %q", got.Content)
	}
	if got.TeacherGrade == nil || *got.TeacherGrade != 85 || got.TeacherFeedback != "不错" {
		t.Fatalf("re-save must keep the teacher grade: %+v", got)
	}
}

func TestNoteTeacherAccess(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newNoteServiceForTest(db)

	note, err := svc.SaveNotes(f.Student.ID, f.Resource.ID, "some notes")
	if err != nil {
		t.Fatalf("save notes: %v", err)
	}

	notes, err := svc.ListByResource(f.Teacher.ID, f.Resource.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("listed %d notes, want 1", len(notes))
	}

	if _, err := svc.ListByResource(f.Teacher.ID+100, f.Resource.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("foreign teacher list: err = %v, want permission denied", err)
	}
	if _, err := svc.GradeNote(f.Teacher.ID+100, note.ID, GradeNoteRequest{Grade: 50}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("foreign teacher grade: err = %v, want permission denied", err)
	}
	if _, err := svc.GradeNote(f.Teacher.ID, note.ID, GradeNoteRequest{Grade: 120}); err == nil {
		t.Fatal("grade beyond 100 must be rejected")
	}
}

func TestSaveNotesUnknownResource(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newNoteServiceForTest(db)

	if _, err := svc.SaveNotes(f.Student.ID, 9999, "notes"); !errors.Is(err, util.ErrResourceNotFound) {
		t.Fatalf("err = %v, want resource not found", err)
	}
	if _, err := svc.GetNotes(f.Student.ID, 9999); !errors.Is(err, util.ErrResourceNotFound) {
		t.Fatalf("err = %v, want resource not found", err)
	}
}
