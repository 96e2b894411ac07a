package themeswitcher

// Theme is a color scheme preference.
type Theme string

const (
	Light  Theme = "light"
	Dark   Theme = "dark"
	System Theme = "system"
)

// ParseTheme returns the theme named by s, or System for anything else.
func ParseTheme(s string) Theme {
	switch t := Theme(s); t {
	case Light, Dark, System:
		return t
	default:
		return System
	}
}

// Next returns the theme that follows t: light, dark, system, light.
func (t Theme) Next() Theme {
	switch t {
	case Light:
		return Dark
	case Dark:
		return System
	default:
		return Light
	}
}
