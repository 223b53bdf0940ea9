package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"shiritori/pkg/domain"
	"shiritori/pkg/store"
)

// Directory canonicalizes and classifies vocabulary tokens. Words seen for
// the first time during play are created with source "game"; bulk loads use
// source "list". Neither path overwrites the source of an existing record.
type Directory struct {
	store     store.Store
	cache     WordCache
	batchSize int

	mu     sync.RWMutex
	banned map[string]bool
}

// NewDirectory builds a directory around the given store and cache.
func NewDirectory(s store.Store, cache WordCache, batchSize int) *Directory {
	if cache == nil {
		cache = NewMemoryWordCache()
	}
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Directory{
		store:     s,
		cache:     cache,
		batchSize: batchSize,
		banned:    make(map[string]bool),
	}
}

// Normalize lowercases and trims a raw token.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Resolve returns the word record for a token, creating it with source
// "game" on first sighting.
func (d *Directory) Resolve(ctx context.Context, raw string) (domain.Word, error) {
	text := Normalize(raw)
	if text == "" {
		return domain.Word{}, fmt.Errorf("resolve: empty token")
	}
	if word, ok := d.cache.Get(ctx, text); ok {
		return word, nil
	}
	word, found, err := d.store.GetWordByText(text)
	if err != nil {
		return domain.Word{}, fmt.Errorf("lookup word: %w", err)
	}
	if !found {
		word = domain.Word{Text: text, Source: domain.SourceGame, CreatedAt: time.Now().UTC()}
		if err := d.store.CreateWord(&word); err != nil {
			return domain.Word{}, fmt.Errorf("create word: %w", err)
		}
	}
	d.cache.Put(ctx, word)
	return word, nil
}

// IsBanned checks banned-set membership, independent of word source.
// Results are cached for the process lifetime.
func (d *Directory) IsBanned(ctx context.Context, raw string) (bool, error) {
	text := Normalize(raw)
	d.mu.RLock()
	banned, ok := d.banned[text]
	d.mu.RUnlock()
	if ok {
		return banned, nil
	}
	banned, err := d.store.IsBannedWord(text)
	if err != nil {
		return false, fmt.Errorf("lookup banned word: %w", err)
	}
	d.mu.Lock()
	d.banned[text] = banned
	d.mu.Unlock()
	return banned, nil
}

// LoadList ingests a newline-delimited token file with source "list".
// Duplicates are idempotent no-ops. Returns the number of new words.
func (d *Directory) LoadList(ctx context.Context, r io.Reader) (int, error) {
	return d.bulkLoad(ctx, r, func(batch []string) (int, error) {
		return d.store.CreateWords(batch, domain.SourceList, d.batchSize)
	})
}

// LoadBanned ingests a newline-delimited banned-token file.
func (d *Directory) LoadBanned(ctx context.Context, r io.Reader) (int, error) {
	n, err := d.bulkLoad(ctx, r, d.addBanned)
	if err != nil {
		return n, err
	}
	// Drop memoized negative answers so newly banned words take effect.
	d.mu.Lock()
	d.banned = make(map[string]bool)
	d.mu.Unlock()
	return n, nil
}

func (d *Directory) addBanned(batch []string) (int, error) {
	return d.store.AddBannedWords(batch, d.batchSize)
}

// bulkLoad streams lines into batched inserts: one goroutine reads, one
// writes, so large word lists don't buffer fully in memory.
func (d *Directory) bulkLoad(ctx context.Context, r io.Reader, insert func([]string) (int, error)) (int, error) {
	batches := make(chan []string, 4)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(batches)
		scanner := bufio.NewScanner(r)
		batch := make([]string, 0, d.batchSize)
		for scanner.Scan() {
			text := Normalize(scanner.Text())
			if text == "" {
				continue
			}
			batch = append(batch, text)
			if len(batch) >= d.batchSize {
				select {
				case batches <- batch:
				case <-ctx.Done():
					return ctx.Err()
				}
				batch = make([]string, 0, d.batchSize)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read word list: %w", err)
		}
		if len(batch) > 0 {
			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	inserted := 0
	group.Go(func() error {
		for batch := range batches {
			n, err := insert(batch)
			if err != nil {
				return fmt.Errorf("insert word batch: %w", err)
			}
			inserted += n
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return inserted, err
	}
	return inserted, nil
}
