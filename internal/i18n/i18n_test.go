package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Training Assistant" {
		t.Errorf("T(AppTitle) = %q, want 'Training Assistant'", got)
	}

	got = T(ctx, "CorrectAnswer")
	if got != "Correct!" {
		t.Errorf("T(CorrectAnswer) = %q, want 'Correct!'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "AppTitle")
	if got != "Учебный ассистент" {
		t.Errorf("T(AppTitle) = %q, want 'Учебный ассистент'", got)
	}

	got = T(ctx, "CorrectAnswer")
	if got != "Верно!" {
		t.Errorf("T(CorrectAnswer) = %q, want 'Верно!'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsGenerated", 1)
	if got1 != "1 question generated." {
		t.Errorf("Tp(QuestionsGenerated, 1) = %q, want '1 question generated.'", got1)
	}

	got10 := Tp(ctx, "QuestionsGenerated", 10)
	if got10 != "10 questions generated." {
		t.Errorf("Tp(QuestionsGenerated, 10) = %q, want '10 questions generated.'", got10)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "IncorrectAnswer", map[string]any{"Answer": "C. Paris"})
	if got != "Incorrect. The correct answer was: C. Paris" {
		t.Errorf("Td(IncorrectAnswer) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
