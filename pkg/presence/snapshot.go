// Package presence models a fetched presence snapshot and formats it for
// display.
package presence

// Activity types reported by the status API.
const (
	ActivityPlaying   = 0
	ActivityStreaming = 1
	ActivityListening = 2
	ActivityWatching  = 3
	ActivityCustom    = 4
	ActivityCompeting = 5
)

// Snapshot is the decoded body of a status API response.
// It is replaced wholesale on every poll.
type Snapshot struct {
	Success bool `json:"success"`
	Data    Data `json:"data"`
}

// Data is the presence payload of a snapshot.
type Data struct {
	DiscordStatus      string     `json:"discord_status"`
	DiscordUser        User       `json:"discord_user"`
	Activities         []Activity `json:"activities"`
	ListeningToSpotify bool       `json:"listening_to_spotify"`
}

// User identifies the account the snapshot belongs to.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// Activity is one entry of the activities list.
type Activity struct {
	ID            string `json:"id"`
	Type          int    `json:"type"`
	Name          string `json:"name"`
	State         string `json:"state"`
	Details       string `json:"details"`
	ApplicationID string `json:"application_id"`
	Emoji         *Emoji `json:"emoji,omitempty"`
}

// Emoji is the emoji attached to a custom activity.
type Emoji struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Animated bool   `json:"animated"`
}

// IsCustom reports whether the activity is a user-set custom status.
func (a Activity) IsCustom() bool {
	return a.Type == ActivityCustom || a.ID == "custom"
}
