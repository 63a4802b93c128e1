package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	ini "github.com/vaughan0/go-ini"
)

const (
	// DescriptorFile is the INI file looked up when no path is given.
	DescriptorFile = "setting.ini"
	// DescriptorSection holds the connection keys inside the INI file.
	DescriptorSection = "Database"

	settingsDir  = ".devintest"
	settingsFile = "settings"
	settingsType = "yaml"
)

// Required INI keys under [Database].
const (
	KeyEndpoint = "EndPoint"
	KeyDatabase = "DatabaseName"
	KeyUser     = "User"
	KeyPassword = "Password"
)

// Setting defaults.
const (
	DefaultPort           = 5432
	DefaultSSLMode        = "prefer"
	DefaultConnectTimeout = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// ErrMissingKey is returned when a required INI key is absent.
var ErrMissingKey = errors.New("missing key")

var validate = validator.New()

// settingFlags maps settings keys to the CLI flags that override them.
var settingFlags = map[string]string{
	"descriptor_path": "descriptor",
	"port":            "port",
	"sslmode":         "sslmode",
	"connect_timeout": "connect-timeout",
	"strict":          "strict",
	"log_level":       "log-level",
	"log_format":      "log-format",
	"keyring":         "keyring",
}

// LoadDescriptor reads the [Database] section of an INI file.
// An empty path resolves to DefaultDescriptorPath.
func LoadDescriptor(path string) (Descriptor, error) {
	if path == "" {
		path = DefaultDescriptorPath()
	}

	file, err := ini.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("descriptor file %s not found", path)
		}
		return Descriptor{}, fmt.Errorf("read %s: %w", path, err)
	}

	return descriptorFromSection(file, path)
}

func descriptorFromSection(file ini.File, path string) (Descriptor, error) {
	section, ok := file[DescriptorSection]
	if !ok {
		return Descriptor{}, fmt.Errorf("%s: section [%s] not found", path, DescriptorSection)
	}

	values := make(map[string]string, 4)
	for _, key := range []string{KeyEndpoint, KeyDatabase, KeyUser, KeyPassword} {
		v, ok := lookupKey(section, key)
		if !ok {
			return Descriptor{}, fmt.Errorf("%s: [%s] %s: %w", path, DescriptorSection, key, ErrMissingKey)
		}
		values[key] = v
	}

	desc := Descriptor{
		Endpoint: values[KeyEndpoint],
		Database: values[KeyDatabase],
		User:     values[KeyUser],
		Password: values[KeyPassword],
	}
	if err := validate.Struct(desc); err != nil {
		return Descriptor{}, fmt.Errorf("%s: invalid descriptor: %w", path, err)
	}
	return desc, nil
}

// lookupKey matches INI option names case-insensitively.
func lookupKey(section ini.Section, key string) (string, bool) {
	if v, ok := section[key]; ok {
		return v, true
	}
	for k, v := range section {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// DefaultDescriptorPath returns setting.ini beside the executable, or in the
// working directory when the executable directory has none.
func DefaultDescriptorPath() string {
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), DescriptorFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return DescriptorFile
}

// LoadSettings reads ~/.devintest/settings.yaml (or path, when set) and applies
// any changed flags on top. A missing default file yields defaults.
func LoadSettings(path string, flags *pflag.FlagSet) (*Settings, error) {
	v, err := newSettingsViper(flags)
	if err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := settingsDirPath()
		if err != nil {
			return nil, fmt.Errorf("settings dir: %w", err)
		}
		v.SetConfigName(settingsFile)
		v.SetConfigType(settingsType)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	return unmarshalSettings(v)
}

// SettingsFromFlags returns the defaults with changed flags applied. No file
// is read.
func SettingsFromFlags(flags *pflag.FlagSet) (*Settings, error) {
	v, err := newSettingsViper(flags)
	if err != nil {
		return nil, err
	}
	return unmarshalSettings(v)
}

func newSettingsViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if flags != nil {
		for key, name := range settingFlags {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	return v, nil
}

func unmarshalSettings(v *viper.Viper) (*Settings, error) {
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Port:           DefaultPort,
		SSLMode:        DefaultSSLMode,
		ConnectTimeout: DefaultConnectTimeout,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
	}
}

// SaveSettings writes settings to path, or to ~/.devintest/settings.yaml when
// path is empty. It returns the path written.
func SaveSettings(path string, s *Settings) (string, error) {
	if path == "" {
		var err error
		if path, err = DefaultSettingsPath(); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create settings dir: %w", err)
	}

	v := viper.New()
	v.Set("descriptor_path", s.DescriptorPath)
	v.Set("port", s.Port)
	v.Set("sslmode", s.SSLMode)
	v.Set("connect_timeout", s.ConnectTimeout.String())
	v.Set("strict", s.Strict)
	v.Set("log_level", s.LogLevel)
	v.Set("log_format", s.LogFormat)
	v.Set("keyring", s.Keyring)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write settings: %w", err)
	}
	return path, nil
}

// DefaultSettingsPath returns ~/.devintest/settings.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := settingsDirPath()
	if err != nil {
		return "", fmt.Errorf("settings dir: %w", err)
	}
	return filepath.Join(dir, settingsFile+"."+settingsType), nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("descriptor_path", d.DescriptorPath)
	v.SetDefault("port", d.Port)
	v.SetDefault("sslmode", d.SSLMode)
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("keyring", d.Keyring)
}

func settingsDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, settingsDir), nil
}
