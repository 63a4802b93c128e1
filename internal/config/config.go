package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Descriptor identifies how to reach the database. It is loaded once from the
// [Database] section of the INI source and never changed afterwards.
type Descriptor struct {
	Endpoint string `validate:"required"`
	Database string `validate:"required"`
	User     string `validate:"required"`
	Password string
}

// Settings holds runner preferences that are not connection identity.
type Settings struct {
	DescriptorPath string        `mapstructure:"descriptor_path" yaml:"descriptor_path"`
	Port           int           `mapstructure:"port" yaml:"port"`
	SSLMode        string        `mapstructure:"sslmode" yaml:"sslmode"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	Strict         bool          `mapstructure:"strict" yaml:"strict"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string        `mapstructure:"log_format" yaml:"log_format"`
	Keyring        bool          `mapstructure:"keyring" yaml:"keyring"`
}

// HostPort splits the endpoint into host and port. An endpoint without a port
// uses defaultPort.
func (d Descriptor) HostPort(defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(d.Endpoint)
	if err != nil {
		// No port present; bracketed IPv6 literals are unwrapped.
		return strings.Trim(d.Endpoint, "[]"), defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q in endpoint %q", portStr, d.Endpoint)
	}
	return host, port, nil
}

// DisplayString returns a human-readable summary of the descriptor.
// The password is never part of it.
func (d Descriptor) DisplayString() string {
	s := d.Endpoint + "/" + d.Database
	if d.User != "" {
		s = d.User + "@" + s
	}
	return s
}

// String implements fmt.Stringer so descriptors printed with %v stay masked.
func (d Descriptor) String() string {
	return d.DisplayString()
}

// MaskedPassword returns one asterisk per password character.
func (d Descriptor) MaskedPassword() string {
	return strings.Repeat("*", len(d.Password))
}

// MarshalZerologObject logs the descriptor without its password.
func (d Descriptor) MarshalZerologObject(e *zerolog.Event) {
	e.Str("endpoint", d.Endpoint).
		Str("database", d.Database).
		Str("user", d.User)
}

// KeyringAccount is the account name under which the password is stored.
func (d Descriptor) KeyringAccount() string {
	return d.User + "@" + d.Endpoint
}
