package engine

import (
	"context"
	"strings"
	"testing"

	"shiritori/pkg/domain"
)

func TestResolveCreatesGameWords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	directory := env.engine.words

	word, err := directory.Resolve(ctx, "  Apple ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if word.Text != "apple" {
		t.Fatalf("expected normalized text, got %q", word.Text)
	}
	if word.Source != domain.SourceGame {
		t.Fatalf("fresh play word should have source game, got %q", word.Source)
	}

	again, err := directory.Resolve(ctx, "APPLE")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.ID != word.ID {
		t.Fatalf("resolve should return the same record, got %d and %d", word.ID, again.ID)
	}
}

func TestLoadListKeepsExistingSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	directory := env.engine.words

	if _, err := directory.Resolve(ctx, "apple"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	inserted, err := directory.LoadList(ctx, strings.NewReader("apple\nzebra\n"))
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("expected 1 new word, got %d", inserted)
	}

	apple, _, _ := env.store.GetWordByText("apple")
	if apple.Source != domain.SourceGame {
		t.Fatalf("bulk load must not overwrite source, got %q", apple.Source)
	}
	zebra, found, _ := env.store.GetWordByText("zebra")
	if !found || zebra.Source != domain.SourceList {
		t.Fatalf("list word should have source list, got %+v", zebra)
	}
}

func TestLoadListSkipsBlanksAndDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	directory := env.engine.words

	inserted, err := directory.LoadList(ctx, strings.NewReader("apple\n\n  \napple\nbanana\n"))
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 new words, got %d", inserted)
	}
}

func TestIsBannedIndependentOfSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	directory := env.engine.words

	if _, err := directory.LoadList(ctx, strings.NewReader("crabgrass\n")); err != nil {
		t.Fatalf("load list: %v", err)
	}
	banned, err := directory.IsBanned(ctx, "crabgrass")
	if err != nil || banned {
		t.Fatalf("expected not banned, got %v err=%v", banned, err)
	}
	if _, err := directory.LoadBanned(ctx, strings.NewReader("crabgrass\n")); err != nil {
		t.Fatalf("load banned: %v", err)
	}
	banned, err = directory.IsBanned(ctx, "Crabgrass")
	if err != nil || !banned {
		t.Fatalf("expected banned, got %v err=%v", banned, err)
	}
	// Banned membership does not touch the word's source.
	word, _, _ := env.store.GetWordByText("crabgrass")
	if word.Source != domain.SourceList {
		t.Fatalf("banning must not change source, got %q", word.Source)
	}
}
