package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/config"
)

// ProfilesConfig holds all named profiles and tracks which one is active.
type ProfilesConfig struct {
	Active   string             `toml:"active"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is a named backend connection.
type Profile struct {
	URL     string `toml:"url"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
	Company string `toml:"company,omitempty"`
}

func profilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "freightdesk")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.toml"), nil
}

func loadProfiles() (ProfilesConfig, error) {
	path, err := profilesPath()
	if err != nil {
		return ProfilesConfig{}, err
	}
	var pc ProfilesConfig
	if _, err := toml.DecodeFile(path, &pc); err != nil {
		if os.IsNotExist(err) {
			return ProfilesConfig{Profiles: map[string]Profile{}}, nil
		}
		return ProfilesConfig{}, err
	}
	if pc.Profiles == nil {
		pc.Profiles = map[string]Profile{}
	}
	return pc, nil
}

func saveProfiles(pc ProfilesConfig) error {
	path, err := profilesPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(pc)
}

// resolvedEndpoint is the backend and bus the command talks to.
type resolvedEndpoint struct {
	Profile string
	URL     string
	Token   string
	NATSURL string
	Company string
}

// resolveEndpoint picks each setting from, in order: an explicit flag, a
// FREIGHTDESK_* variable, the selected profile, the built-in default.
func resolveEndpoint(cmd *cobra.Command, c *config.Config, pc ProfilesConfig) (resolvedEndpoint, error) {
	name := pc.Active
	if f := cmd.Flag("profile"); f != nil && f.Changed {
		name = f.Value.String()
	}
	var p Profile
	if name != "" {
		var ok bool
		if p, ok = pc.Profiles[name]; !ok {
			return resolvedEndpoint{}, fmt.Errorf("profile %q not found", name)
		}
	}

	pick := func(flag, envKey, envVal, prof string) string {
		if f := cmd.Flag(flag); f != nil && f.Changed {
			return f.Value.String()
		}
		if envKey != "" && os.Getenv(envKey) != "" {
			return envVal
		}
		if prof != "" {
			return prof
		}
		return envVal
	}

	return resolvedEndpoint{
		Profile: name,
		URL:     pick("api-url", "FREIGHTDESK_API_URL", c.APIURL, p.URL),
		Token:   pick("token", "FREIGHTDESK_TOKEN", c.Token, p.Token),
		NATSURL: pick("", "FREIGHTDESK_NATS_URL", c.NATSURL, p.NATSURL),
		Company: pick("company", "", "", p.Company),
	}, nil
}
