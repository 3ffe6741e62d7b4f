package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	asr "github.com/DeNoronha/ctn-asr-demo-sub015"
)

// Config holds the full configuration of the registry server.
type Config struct {
	Server    asr.ServerConf `yaml:"server"`
	Registry  registryConf   `yaml:"registry"`
	Signing   SigningConf    `yaml:"signing"`
	Storage   storageConf    `yaml:"storage"`
	Logging   loggingConf    `yaml:"logging"`
	API       apiConf        `yaml:"api"`
	Endpoints Endpoints      `yaml:"endpoints"`
	Caching   cachingConf    `yaml:"caching"`
	Geo       geoConf        `yaml:"geo"`
	Sweep     sweepConf      `yaml:"sweep"`
}

// registryConf identifies this registry as a token issuer.
type registryConf struct {
	// IssuerID is the value of the iss claim on all issued tokens. There is
	// no implicit default; two registries must never share an issuer id by
	// accident.
	IssuerID string `yaml:"issuer_id"`
}

func (c *registryConf) validate() error {
	if c.IssuerID == "" {
		return errors.New("error in registry conf: issuer_id must be specified")
	}
	return nil
}

// geoConf configures the optional GeoIP enrichment of the validation log.
type geoConf struct {
	// MMDBPath points to a MaxMind GeoIP database file. Empty disables the
	// lookup; validation log entries then carry no requester country.
	MMDBPath string `yaml:"mmdb_path"`
}

func (c *geoConf) validate() error {
	if c.MMDBPath != "" && !fileutils.FileExists(c.MMDBPath) {
		return errors.Errorf("geo database '%s' does not exist", c.MMDBPath)
	}
	return nil
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/etc/asr",
}

// Load loads the configuration from the given file, falling back to the
// known default locations when no file is passed.
func Load(configFile string) {
	data := mustReadConfigFile(configFile)
	conf = &Config{
		Signing:   defaultSigningConf,
		Storage:   defaultStorageConf,
		Logging:   defaultLoggingConf,
		API:       defaultAPIConf,
		Endpoints: defaultEndpointsConf,
		Sweep:     defaultSweepConf,
	}
	if err := yaml.Unmarshal(data, conf); err != nil {
		log.WithError(err).Fatal("could not parse config file")
	}
	for name, v := range map[string]interface{ validate() error }{
		"registry":  &conf.Registry,
		"signing":   &conf.Signing,
		"storage":   &conf.Storage,
		"logging":   &conf.Logging,
		"geo":       &conf.Geo,
		"sweep":     &conf.Sweep,
		"endpoints": &conf.Endpoints,
	} {
		if err := v.validate(); err != nil {
			log.WithError(err).WithField("section", name).Fatal("invalid configuration")
		}
	}
}

func mustReadConfigFile(configFile string) []byte {
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			log.WithError(err).WithField("file", configFile).Fatal("could not read config file")
		}
		return data
	}
	for _, dir := range possibleConfigLocations {
		data, _ := fileutils.ReadFile(dir + "/config.yaml")
		if data != nil {
			return data
		}
	}
	log.Fatal("could not find a config file in any of the default locations")
	return nil
}
