package configstore

// Paths names the two candidate configuration files. Override wins whenever
// it exists on disk.
type Paths struct {
	Override string
	Default  string
}

// ConfigStore describes the operations exposed over the SUT configuration file.
type ConfigStore interface {
	ResolvePath() string
	GetValue(section, option string) (string, error)
	SetValue(section, option, value string) error
	GetPlatformItem(item string) (string, error)
	PlatformItem(item string) (platform, value string, err error)
	Platform() string
}
