package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestMessageRepository(t *testing.T) {
	repo := newTestStore(t).Messages()

	for i := 0; i < 5; i++ {
		m := &Message{
			ID:     fmt.Sprintf("m%d", i),
			Text:   fmt.Sprintf("message %d", i),
			Sender: SenderUser,
			Source: SourceTyped,
		}
		if i%2 == 0 {
			m.Source = SourceSpeech
		}
		if err := repo.Create(m); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if m.CreatedAt.IsZero() {
			t.Error("CreatedAt should be set")
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List(0) error = %v", err)
	}
	if len(all) != 5 || all[0].ID != "m0" || all[4].ID != "m4" {
		t.Errorf("List(0) order wrong: %v", ids(all))
	}
	if all[0].Source != SourceSpeech || all[1].Source != SourceTyped {
		t.Errorf("sources = %s, %s", all[0].Source, all[1].Source)
	}

	latest, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if got := ids(latest); fmt.Sprint(got) != "[m3 m4]" {
		t.Errorf("List(2) = %v, want [m3 m4]", got)
	}

	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	all, _ = repo.List(0)
	if len(all) != 0 {
		t.Errorf("transcript not cleared: %v", ids(all))
	}
}

func TestMessageRepository_RejectsUnknownSender(t *testing.T) {
	repo := newTestStore(t).Messages()

	err := repo.Create(&Message{ID: "x", Text: "hi", Sender: "robot", Source: SourceTyped})
	if err == nil {
		t.Error("unknown sender should violate the CHECK constraint")
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingActiveTable); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	for _, v := range []string{"ko-basic", "en-stop"} {
		if err := repo.Set(SettingActiveTable, v); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := repo.Get(SettingActiveTable)
		if err != nil || got != v {
			t.Errorf("Get() = %q, %v; want %q", got, err, v)
		}
	}
}

func ids(ms []*Message) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
