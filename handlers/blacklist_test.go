package handlers

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"support-bot/config"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name  string
		total int
		size  int
		want  []int // page lengths
	}{
		{"empty", 0, 5, nil},
		{"under one page", 3, 5, []int{3}},
		{"exact page", 5, 5, []int{5}},
		{"spillover", 12, 5, []int{5, 5, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.total)
			for i := range ids {
				ids[i] = fmt.Sprint(i)
			}

			pages := chunkIDs(ids, tt.size)
			if len(pages) != len(tt.want) {
				t.Fatalf("got %d pages, want %d", len(pages), len(tt.want))
			}
			for i, n := range tt.want {
				if len(pages[i]) != n {
					t.Errorf("page %d has %d entries, want %d", i, len(pages[i]), n)
				}
			}
		})
	}
}

func buttonsByID(rows []discordgo.MessageComponent) map[string]discordgo.Button {
	out := make(map[string]discordgo.Button)
	for _, row := range rows {
		ar, ok := row.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if b, ok := c.(discordgo.Button); ok {
				out[b.CustomID] = b
			}
		}
	}
	return out
}

func TestBlacklistPageButtons(t *testing.T) {
	const total = 12 // 3 pages of 5

	tests := []struct {
		name         string
		page         int
		expired      bool
		prevDisabled bool
		nextDisabled bool
	}{
		{"first page", 0, false, true, false},
		{"middle page", 1, false, false, false},
		{"last page", 2, false, false, true},
		{"expired disables everything", 1, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buttons := buttonsByID(blacklistPageButtons(total, tt.page, tt.expired))
			if buttons["blacklist_prev"].Disabled != tt.prevDisabled {
				t.Errorf("prev.Disabled = %v, want %v", buttons["blacklist_prev"].Disabled, tt.prevDisabled)
			}
			if buttons["blacklist_next"].Disabled != tt.nextDisabled {
				t.Errorf("next.Disabled = %v, want %v", buttons["blacklist_next"].Disabled, tt.nextDisabled)
			}
		})
	}
}

func TestBlacklistPageEmbedEmpty(t *testing.T) {
	storage.Cfg = &config.Config{}

	embed := blacklistPageEmbed(nil, 0)
	if embed.Description != "No users are currently blacklisted." {
		t.Errorf("empty embed description = %q", embed.Description)
	}
	if !strings.Contains(embed.Footer.Text, "0 user(s)") {
		t.Errorf("empty embed footer = %q", embed.Footer.Text)
	}
}

func TestBlacklistViewConcurrentPaging(t *testing.T) {
	ids := make([]string, 100) // 20 pages
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	view := &blacklistView{userIDs: ids, expiresAt: time.Now().Add(time.Minute)}
	last := blacklistPageCount(len(ids)) - 1

	var wg sync.WaitGroup
	for n := 0; n < 200; n++ {
		customID := "blacklist_next"
		if n%3 == 0 {
			customID = "blacklist_prev"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, page := view.step(id)
			if page < 0 || page > last {
				t.Errorf("page %d out of range [0,%d]", page, last)
			}
		}(customID)
	}
	wg.Wait()

	if _, page := view.current(); page < 0 || page > last {
		t.Errorf("final page %d out of range", page)
	}
}

func TestBlacklistViewStepClamps(t *testing.T) {
	view := &blacklistView{userIDs: []string{"1", "2", "3"}} // single page

	if _, page := view.step("blacklist_prev"); page != 0 {
		t.Errorf("prev on first page moved to %d", page)
	}
	if _, page := view.step("blacklist_next"); page != 0 {
		t.Errorf("next on last page moved to %d", page)
	}
}

func TestBlacklistPageEmbed(t *testing.T) {
	storage.Cfg = &config.Config{}

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("10%02d", i)
	}

	embed := blacklistPageEmbed(ids, 2)
	if !strings.Contains(embed.Footer.Text, "Page 3/3") {
		t.Errorf("footer = %q", embed.Footer.Text)
	}
	// Last page holds entries 11 and 12 only.
	if !strings.Contains(embed.Description, "1010") || !strings.Contains(embed.Description, "1011") {
		t.Errorf("description missing last-page entries: %q", embed.Description)
	}
	if strings.Contains(embed.Description, "`1009`") {
		t.Errorf("description leaked previous page: %q", embed.Description)
	}
}
