package presence

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func snapshot(status string, user User, acts ...Activity) *Snapshot {
	return &Snapshot{
		Success: true,
		Data: Data{
			DiscordStatus: status,
			DiscordUser:   user,
			Activities:    acts,
		},
	}
}

var alice = User{ID: "1", Username: "alice", GlobalName: "Alice", Discriminator: "0"}

func TestFormat_NoActivities(t *testing.T) {
	s := snapshot("online", alice)
	s.Data.ListeningToSpotify = true

	d := Format(s)

	if !d.ActivityHidden {
		t.Error("expected activity section to be hidden")
	}
	if d.ActivityText != "" || d.ActivityLabel != "" {
		t.Errorf("expected blank activity, got %q %q", d.ActivityLabel, d.ActivityText)
	}
	if d.RichPresence {
		t.Error("expected rich presence to be hidden")
	}
}

func TestFormat_Streaming(t *testing.T) {
	d := Format(snapshot("dnd", alice, Activity{
		Type:          ActivityStreaming,
		Name:          "Twitch",
		Details:       "speedrunning",
		ApplicationID: "42",
	}))

	if d.ActivityLabel != "Streaming" {
		t.Errorf("expected label 'Streaming', got '%s'", d.ActivityLabel)
	}
	if d.Indicator != IndicatorStreaming {
		t.Errorf("expected indicator streaming, got '%s'", d.Indicator)
	}
	if d.Tooltip != "Streaming" {
		t.Errorf("expected tooltip 'Streaming', got '%s'", d.Tooltip)
	}
	if d.ActivityText != "speedrunning" {
		t.Errorf("expected details as text, got '%s'", d.ActivityText)
	}
	if !d.RichPresence {
		t.Error("expected rich presence for streaming with an application")
	}
}

func TestFormat_Custom(t *testing.T) {
	tests := []struct {
		name  string
		acts  []Activity
		emoji *EmojiRef
		rich  bool
	}{
		{
			name:  "glyph",
			acts:  []Activity{{Type: ActivityCustom, State: "vibing", Emoji: &Emoji{Name: "🌱"}}},
			emoji: &EmojiRef{Glyph: "🌱"},
		},
		{
			name:  "image",
			acts:  []Activity{{ID: "custom", State: "vibing", Emoji: &Emoji{Name: "sprout", ID: "1234"}}},
			emoji: &EmojiRef{ImageURL: "https://cdn.discordapp.com/emojis/1234.png"},
		},
		{
			name: "animated image with another activity",
			acts: []Activity{
				{Type: ActivityCustom, State: "vibing", Emoji: &Emoji{Name: "spin", ID: "99", Animated: true}},
				{Type: ActivityPlaying, Name: "Celeste", ApplicationID: "7"},
			},
			emoji: &EmojiRef{ImageURL: "https://cdn.discordapp.com/emojis/99.gif"},
			rich:  true,
		},
		{
			name: "no emoji",
			acts: []Activity{{Type: ActivityCustom, State: "vibing"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Format(snapshot("idle", alice, tt.acts...))

			if d.ActivityLabel != "vibing" {
				t.Errorf("expected label 'vibing', got '%s'", d.ActivityLabel)
			}
			if diff := cmp.Diff(tt.emoji, d.Emoji); diff != "" {
				t.Errorf("emoji mismatch (-want +got):\n%s", diff)
			}
			if d.RichPresence != tt.rich {
				t.Errorf("expected rich presence %v, got %v", tt.rich, d.RichPresence)
			}
			if d.Indicator != IndicatorIdle {
				t.Errorf("expected indicator idle, got '%s'", d.Indicator)
			}
		})
	}
}

func TestFormat_Listening(t *testing.T) {
	s := snapshot("online", alice, Activity{Type: ActivityListening, Name: "Spotify", ApplicationID: "3"})
	s.Data.ListeningToSpotify = true

	d := Format(s)

	if d.ActivityLabel != "Listening to" || d.ActivityText != "Spotify" {
		t.Errorf("expected 'Listening to Spotify', got '%s %s'", d.ActivityLabel, d.ActivityText)
	}
}

func TestFormat_Playing(t *testing.T) {
	withApp := Format(snapshot("online", alice, Activity{Name: "Celeste", State: "Chapter 7", ApplicationID: "7"}))
	if withApp.ActivityLabel != "Playing" || withApp.ActivityText != "Celeste" {
		t.Errorf("expected 'Playing Celeste', got '%s %s'", withApp.ActivityLabel, withApp.ActivityText)
	}
	if !withApp.RichPresence {
		t.Error("expected rich presence for an application activity")
	}

	noApp := Format(snapshot("online", alice, Activity{Name: "Celeste", State: "Chapter 7"}))
	if noApp.ActivityLabel != "Playing" || noApp.ActivityText != "Chapter 7" {
		t.Errorf("expected 'Playing Chapter 7', got '%s %s'", noApp.ActivityLabel, noApp.ActivityText)
	}
	if noApp.RichPresence {
		t.Error("expected rich presence to be hidden without an application")
	}
	if noApp.ActivityHidden {
		t.Error("expected activity section to be shown")
	}
}

func TestFormat_Discriminator(t *testing.T) {
	tests := []struct {
		name      string
		user      User
		secondary string
		hidden    bool
	}{
		{"same handle", User{Username: "alice", GlobalName: "alice", Discriminator: "0"}, "", true},
		{"different display name", User{Username: "alice", GlobalName: "Alice", Discriminator: "0"}, "(alice)", false},
		{"legacy discriminator", User{Username: "alice", GlobalName: "Alice", Discriminator: "4242"}, "(alice#4242)", false},
		{"legacy discriminator same name", User{Username: "alice", GlobalName: "alice", Discriminator: "4242"}, "(alice#4242)", false},
		{"missing discriminator", User{Username: "alice", GlobalName: "alice"}, "", true},
		{"missing display name", User{Username: "alice", Discriminator: "0"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Format(snapshot("online", tt.user))
			if d.Secondary != tt.secondary {
				t.Errorf("expected secondary '%s', got '%s'", tt.secondary, d.Secondary)
			}
			if d.SecondaryHidden != tt.hidden {
				t.Errorf("expected hidden %v, got %v", tt.hidden, d.SecondaryHidden)
			}
		})
	}
}

func TestParseIndicator(t *testing.T) {
	tests := map[string]Indicator{
		"online":    IndicatorOnline,
		"idle":      IndicatorIdle,
		"dnd":       IndicatorDND,
		"offline":   IndicatorOffline,
		"streaming": IndicatorOffline,
		"":          IndicatorOffline,
		"invisible": IndicatorOffline,
	}
	for in, want := range tests {
		if got := ParseIndicator(in); got != want {
			t.Errorf("ParseIndicator(%q): expected %s, got %s", in, want, got)
		}
	}
	if IndicatorDND.Tooltip() != "Do Not Disturb" {
		t.Errorf("expected 'Do Not Disturb', got '%s'", IndicatorDND.Tooltip())
	}
}

func TestFormat_DecodedSnapshot(t *testing.T) {
	body := `{"data":{"discord_status":"online","discord_user":{"global_name":"Alice","username":"alice","discriminator":"0"},"activities":[]}}`

	var s Snapshot
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := Display{
		Indicator:       IndicatorOnline,
		Tooltip:         "Online",
		Name:            "Alice",
		Secondary:       "(alice)",
		SecondaryHidden: false,
		ActivityHidden:  true,
	}
	if diff := cmp.Diff(want, Format(&s)); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat_Nil(t *testing.T) {
	d := Format(nil)
	if d.Indicator != IndicatorOffline || !d.ActivityHidden {
		t.Errorf("expected offline with hidden activity, got %+v", d)
	}
}
