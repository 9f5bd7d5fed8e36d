package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type StripOptions struct {
	TitleWidth          int  `toml:"title-width"`
	MRUSize             int  `toml:"mru-size"`
	ActivationTimeoutMs int  `toml:"activation-timeout-ms"`
	ShowWindowBar       bool `toml:"show-window-bar"`
	Debug               bool `toml:"debug"`
}

type Theme struct {
	Theme                string `toml:"theme"`
	Foreground           string `toml:"foreground"`
	Background           string `toml:"background"`
	PinnedForeground     string `toml:"pinned-foreground"`
	ActiveForeground     string `toml:"active-foreground"`
	ActiveBackground     string `toml:"active-background"`
	SelectionForeground  string `toml:"selection-foreground"`
	SelectionBackground  string `toml:"selection-background"`
	GroupForeground      string `toml:"group-foreground"`
	WindowBarForeground  string `toml:"window-bar-foreground"`
	WindowBarBackground  string `toml:"window-bar-background"`
	StatuslineForeground string `toml:"statusline-foreground"`
	StatuslineBackground string `toml:"statusline-background"`
}

type Config struct {
	Strip  StripOptions      `toml:"strip"`
	Theme  Theme             `toml:"theme"`
	Keymap map[string]string `toml:"keymap"`
	Rules  Rules             `toml:"-"`
}

func Default() Config {
	return Config{
		Strip: StripOptions{
			TitleWidth:          18,
			MRUSize:             32,
			ActivationTimeoutMs: 500,
			ShowWindowBar:       true,
		},
		Theme: Theme{
			Foreground:           "#B3B1AD",
			Background:           "#0A0E14",
			PinnedForeground:     "#E6B450",
			ActiveForeground:     "#0A0E14",
			ActiveBackground:     "#B3B1AD",
			SelectionForeground:  "#B3B1AD",
			SelectionBackground:  "#27425A",
			GroupForeground:      "#59C2FF",
			WindowBarForeground:  "#3E4B59",
			WindowBarBackground:  "#0F1419",
			StatuslineForeground: "#B3B1AD",
			StatuslineBackground: "#0F1419",
		},
		Keymap: map[string]string{
			"cmd+left":       "move_left",
			"cmd+right":      "move_right",
			"cmd+home":       "move_home",
			"cmd+end":        "move_end",
			"H":              "move_left",
			"L":              "move_right",
			"<":              "move_home",
			">":              "move_end",
			"W":              "move_new_window",
			"M":              "move_next_window",
			"h":              "tab_left",
			"l":              "tab_right",
			"left":           "tab_left",
			"right":          "tab_right",
			"j":              "window_next",
			"k":              "window_prev",
			"down":           "window_next",
			"up":             "window_prev",
			"space":          "toggle_select",
			"esc":            "select_none",
			"a":              "select_group",
			"p":              "pin",
			"g":              "group_selected",
			"G":              "ungroup_selected",
			"c":              "toggle_collapse",
			"r":              "group_by_repo",
			"R":              "group_by_rule",
			"tab":            "focus_recent",
			"n":              "new_window",
			"x":              "close_tab",
			"q":              "quit",
			"ctrl+c":         "quit",
		},
		Rules: Rules{
			{Name: "go", Color: "cyan", FileTypes: []string{"go", "go.mod", "go.sum"}},
			{Name: "docs", Color: "green", FileTypes: []string{"md", "txt", "rst"}},
			{Name: "config", Color: "yellow", FileTypes: []string{"toml", "yaml", "yml", "json"}},
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := merge(&cfg, string(data)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// file mirrors Config with the rule array exposed to the decoder.
type file struct {
	Strip  StripOptions      `toml:"strip"`
	Theme  Theme             `toml:"theme"`
	Keymap map[string]string `toml:"keymap"`
	Rules  Rules             `toml:"rule"`
}

func merge(cfg *Config, data string) error {
	var userCfg file
	if _, err := toml.Decode(data, &userCfg); err != nil {
		return err
	}

	if userCfg.Strip.TitleWidth > 0 {
		cfg.Strip.TitleWidth = userCfg.Strip.TitleWidth
	}
	if userCfg.Strip.MRUSize > 0 {
		cfg.Strip.MRUSize = userCfg.Strip.MRUSize
	}
	if userCfg.Strip.ActivationTimeoutMs > 0 {
		cfg.Strip.ActivationTimeoutMs = userCfg.Strip.ActivationTimeoutMs
	}
	if userCfg.Strip.Debug {
		cfg.Strip.Debug = true
	}
	// show-window-bar defaults to true, so only an explicit false matters
	if !userCfg.Strip.ShowWindowBar && hasKey(data, "strip", "show-window-bar") {
		cfg.Strip.ShowWindowBar = false
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap {
		cfg.Keymap[k] = v
	}
	// user rules win over the defaults
	cfg.Rules = append(append(Rules(nil), userCfg.Rules...), cfg.Rules...)
	return nil
}

func hasKey(data, section, key string) bool {
	var raw map[string]interface{}
	md, err := toml.Decode(data, &raw)
	if err != nil {
		return false
	}
	return md.IsDefined(section, key)
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.PinnedForeground != "" {
		dst.PinnedForeground = src.PinnedForeground
	}
	if src.ActiveForeground != "" {
		dst.ActiveForeground = src.ActiveForeground
	}
	if src.ActiveBackground != "" {
		dst.ActiveBackground = src.ActiveBackground
	}
	if src.SelectionForeground != "" {
		dst.SelectionForeground = src.SelectionForeground
	}
	if src.SelectionBackground != "" {
		dst.SelectionBackground = src.SelectionBackground
	}
	if src.GroupForeground != "" {
		dst.GroupForeground = src.GroupForeground
	}
	if src.WindowBarForeground != "" {
		dst.WindowBarForeground = src.WindowBarForeground
	}
	if src.WindowBarBackground != "" {
		dst.WindowBarBackground = src.WindowBarBackground
	}
	if src.StatuslineForeground != "" {
		dst.StatuslineForeground = src.StatuslineForeground
	}
	if src.StatuslineBackground != "" {
		dst.StatuslineBackground = src.StatuslineBackground
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err == nil {
		return t, nil
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return Theme{}, err
	}
	return wrap.Theme, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("TABSHIFT_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "tabshift"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tabshift"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
