package presence

import "fmt"

// Indicator is the presence state driving the status dot.
type Indicator string

const (
	IndicatorOnline    Indicator = "online"
	IndicatorIdle      Indicator = "idle"
	IndicatorDND       Indicator = "dnd"
	IndicatorOffline   Indicator = "offline"
	IndicatorStreaming Indicator = "streaming"
)

// Activity labels.
const (
	LabelStreaming = "Streaming"
	LabelPlaying   = "Playing"
	LabelListening = "Listening to"

	// ListeningService is shown as the activity text while listening.
	ListeningService = "Spotify"
)

// noDiscriminator is the discriminator of accounts migrated to unique
// usernames.
const noDiscriminator = "0"

// EmojiCDN is the base URL for custom emoji images.
const EmojiCDN = "https://cdn.discordapp.com/emojis"

var tooltips = map[Indicator]string{
	IndicatorOnline:    "Online",
	IndicatorIdle:      "Idle",
	IndicatorDND:       "Do Not Disturb",
	IndicatorOffline:   "Offline",
	IndicatorStreaming: "Streaming",
}

// ParseIndicator maps a reported status to an indicator. Unknown values
// are treated as offline.
func ParseIndicator(status string) Indicator {
	switch ind := Indicator(status); ind {
	case IndicatorOnline, IndicatorIdle, IndicatorDND, IndicatorOffline:
		return ind
	default:
		return IndicatorOffline
	}
}

// Tooltip returns the human readable label for the indicator.
func (i Indicator) Tooltip() string {
	if t, ok := tooltips[i]; ok {
		return t
	}
	return tooltips[IndicatorOffline]
}

// EmojiRef is a resolved custom status emoji: either an image or a glyph.
type EmojiRef struct {
	ImageURL string
	Glyph    string
}

// Display is everything the status badge shows for one snapshot.
type Display struct {
	Indicator Indicator
	Tooltip   string

	Name            string
	Secondary       string
	SecondaryHidden bool

	ActivityHidden bool
	ActivityLabel  string
	ActivityText   string
	Emoji          *EmojiRef
	RichPresence   bool
}

// Format maps a snapshot to display values. The first activity decides,
// in order: streaming, custom status, listening, then playing with or
// without an application.
func Format(s *Snapshot) Display {
	if s == nil {
		s = &Snapshot{}
	}
	d := Display{Indicator: ParseIndicator(s.Data.DiscordStatus)}
	d.Name, d.Secondary, d.SecondaryHidden = formatUser(s.Data.DiscordUser)

	acts := s.Data.Activities
	switch {
	case len(acts) == 0:
		d.ActivityHidden = true

	case acts[0].Type == ActivityStreaming:
		d.Indicator = IndicatorStreaming
		d.ActivityLabel = LabelStreaming
		d.ActivityText = acts[0].Details
		d.RichPresence = acts[0].ApplicationID != ""

	case acts[0].IsCustom():
		d.ActivityLabel = acts[0].State
		d.Emoji = resolveEmoji(acts[0].Emoji)
		d.RichPresence = len(acts) >= 2

	case s.Data.ListeningToSpotify:
		d.ActivityLabel = LabelListening
		d.ActivityText = ListeningService

	case acts[0].ApplicationID == "":
		d.ActivityLabel = LabelPlaying
		d.ActivityText = acts[0].State

	default:
		d.ActivityLabel = LabelPlaying
		d.ActivityText = acts[0].Name
		d.RichPresence = true
	}

	d.Tooltip = d.Indicator.Tooltip()
	return d
}

func formatUser(u User) (name, secondary string, hidden bool) {
	disc := u.Discriminator
	if disc == "" {
		disc = noDiscriminator
	}

	name = u.GlobalName
	if name == "" {
		name = u.Username
	}

	if disc == noDiscriminator && u.Username == name {
		return name, "", true
	}
	if disc == noDiscriminator {
		return name, fmt.Sprintf("(%s)", u.Username), false
	}
	return name, fmt.Sprintf("(%s#%s)", u.Username, disc), false
}

func resolveEmoji(e *Emoji) *EmojiRef {
	if e == nil {
		return nil
	}
	if isSnowflake(e.ID) {
		ext := "png"
		if e.Animated {
			ext = "gif"
		}
		return &EmojiRef{ImageURL: fmt.Sprintf("%s/%s.%s", EmojiCDN, e.ID, ext)}
	}
	if e.Name == "" {
		return nil
	}
	return &EmojiRef{Glyph: e.Name}
}

func isSnowflake(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}
