package gateway

import (
	"strconv"
	"testing"
	"time"

	"shiritori/pkg/domain"
)

func TestSnowflakeFromTime(t *testing.T) {
	if got := snowflakeFromTime(time.Time{}); got != "0" {
		t.Fatalf("zero time = %q, want 0", got)
	}
	// Before the Discord epoch there are no snowflakes.
	if got := snowflakeFromTime(time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)); got != "0" {
		t.Fatalf("pre-epoch time = %q, want 0", got)
	}

	at := time.UnixMilli(discordEpoch + 1000).UTC()
	want := strconv.FormatInt(1000<<22, 10)
	if got := snowflakeFromTime(at); got != want {
		t.Fatalf("snowflake = %q, want %q", got, want)
	}

	// Round-tripping the timestamp component recovers the original instant.
	id, err := strconv.ParseInt(snowflakeFromTime(at), 10, 64)
	if err != nil {
		t.Fatalf("parse snowflake: %v", err)
	}
	back := time.UnixMilli((id >> 22) + discordEpoch).UTC()
	if !back.Equal(at) {
		t.Fatalf("round trip = %v, want %v", back, at)
	}
}

func TestEmojiMappingComplete(t *testing.T) {
	kinds := []domain.Emoji{
		domain.EmojiNay,
		domain.EmojiThumbsUp,
		domain.EmojiThumbsDown,
		domain.EmojiThinking,
		domain.EmojiRecycle,
	}
	for _, kind := range kinds {
		if emojiFor[kind] == "" {
			t.Fatalf("no emoji mapped for %q", kind)
		}
	}
}
