// Package config is for run wide settings, unmarshalled from viper.
// Values come from defaults, an optional settings file, LOBEC_
// environment variables and command line flags, in rising order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andrew-torda/lobec/pdb"
	"github.com/andrew-torda/lobec/pkg/quality"
	"github.com/andrew-torda/lobec/pkg/region"
	"github.com/andrew-torda/lobec/pkg/selection"
	"github.com/andrew-torda/lobec/pkg/superpose"
	"github.com/spf13/viper"
)

// EnvPrefix goes in front of environment overrides, so
// LOBEC_ALIGN_CUTOFF sets align.cutoff.
const EnvPrefix = "LOBEC"

// ReferenceConfig is the structure everything is superposed onto.
type ReferenceConfig struct {
	ID       string `mapstructure:"id"`
	Assembly string `mapstructure:"assembly"`
	Chain    string `mapstructure:"chain"`
	Start    int    `mapstructure:"start"`
	End      int    `mapstructure:"end"`
	// read the reference from this file instead of the store
	File string `mapstructure:"file"`
}

// ResultsConfig is about the result table.
type ResultsConfig struct {
	File     string `mapstructure:"file"`
	Extended bool   `mapstructure:"extended"`
}

// AlignConfig is the final superposition.
type AlignConfig struct {
	Cycles int     `mapstructure:"cycles"`
	Cutoff float64 `mapstructure:"cutoff"`
	Atom   string  `mapstructure:"atom"`
}

// RegionConfig is how target windows are chosen.
type RegionConfig struct {
	Mode          string   `mapstructure:"mode"`
	Strategy      string   `mapstructure:"strategy"`
	MinPrimary    int      `mapstructure:"min-primary"`
	MinCandidate  int      `mapstructure:"min-candidate"`
	ExploreCycles int      `mapstructure:"explore-cycles"`
	ExploreCutoff float64  `mapstructure:"explore-cutoff"`
	Shifts        []int    `mapstructure:"shifts"`
	Windows       []string `mapstructure:"windows"`
}

// QualityConfig can make a low atom count an error.
type QualityConfig struct {
	MinAligned int `mapstructure:"min-aligned"`
}

// StoreConfig is where structures come from. Each mirror is a base url
// tried with .cif.gz and then .cif.
type StoreConfig struct {
	Mirrors []string      `mapstructure:"mirrors"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the root-level settings struct.
type Config struct {
	Reference ReferenceConfig `mapstructure:"reference"`
	Manifest  string          `mapstructure:"manifest"`
	CacheDir  string          `mapstructure:"cache-dir"`
	OutDir    string          `mapstructure:"out-dir"`
	Results   ResultsConfig   `mapstructure:"results"`
	Align     AlignConfig     `mapstructure:"align"`
	Region    RegionConfig    `mapstructure:"region"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Store     StoreConfig     `mapstructure:"store"`
	Workers   int             `mapstructure:"workers"`
	Log       string          `mapstructure:"log"`
}

// SetDefaults puts the defaults into v. Every key must have one, or
// environment variables for it are not seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	dfltAlign := superpose.DefaultOptions()
	dfltPol := region.DefaultPolicy()
	dfltNum := region.DfltNumeric()
	windows := make([]string, len(dfltNum.Generic))
	for i, w := range dfltNum.Generic {
		windows[i] = w.String()
	}
	mirrors := []string{}
	for _, m := range pdb.DfltMirrors {
		if !contains(mirrors, m.Base) {
			mirrors = append(mirrors, m.Base)
		}
	}
	for k, val := range map[string]any{
		"reference.id":          "4WB8",
		"reference.assembly":    "1",
		"reference.chain":       "A",
		"reference.start":       127,
		"reference.end":         350,
		"reference.file":        "",
		"manifest":              "",
		"cache-dir":             "pdb_cache",
		"out-dir":               "aligned",
		"results.file":          "superposition_results.csv",
		"results.extended":      false,
		"align.cycles":          dfltAlign.Cycles,
		"align.cutoff":          dfltAlign.Cutoff,
		"align.atom":            "CA",
		"region.mode":           "fallback",
		"region.strategy":       "numeric",
		"region.min-primary":    dfltPol.MinPrimary,
		"region.min-candidate":  dfltPol.MinCandidate,
		"region.explore-cycles": dfltPol.ExploreCycles,
		"region.explore-cutoff": dfltPol.Cutoff,
		"region.shifts":         dfltNum.Shifts,
		"region.windows":        windows,
		"quality.min-aligned":   0,
		"store.mirrors":         mirrors,
		"store.timeout":         "60s",
		"workers":               1,
		"log":                   "",
	} {
		v.SetDefault(k, val)
	}
}

func contains(l []string, s string) bool {
	for _, x := range l {
		if x == s {
			return true
		}
	}
	return false
}

// Setup gives v its defaults and environment handling and reads the
// settings file, if there is one.
func Setup(v *viper.Viper, settings string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if settings == "" {
		return nil
	}
	v.SetConfigFile(settings)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading settings %s: %w", settings, err)
	}
	return nil
}

// New unmarshals v and checks the result.
func New(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode settings: %w", err)
	}
	return c, c.Check()
}

// Check looks for values that cannot work.
func (c *Config) Check() error {
	var errs []error
	if c.Reference.ID == "" && c.Reference.File == "" {
		errs = append(errs, errors.New("reference needs an id or a file"))
	}
	if c.Reference.Start > c.Reference.End {
		errs = append(errs, fmt.Errorf("reference window %d-%d is empty", c.Reference.Start, c.Reference.End))
	}
	if c.Align.Cycles < 0 {
		errs = append(errs, errors.New("align.cycles is negative"))
	}
	if c.Align.Cutoff < 0 {
		errs = append(errs, errors.New("align.cutoff is negative"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if _, err := region.ParseMode(c.Region.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.NumericWindows(); err != nil {
		errs = append(errs, err)
	}
	if _, err := region.NewStrategy(c.Region.Strategy, region.NumericWindows{}, nil); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RefRange is the reference window.
func (c *Config) RefRange() selection.Range {
	return selection.Range{Start: c.Reference.Start, End: c.Reference.End}
}

// NumericWindows is the region.shifts and region.windows settings.
func (c *Config) NumericWindows() (region.NumericWindows, error) {
	nw := region.NumericWindows{Shifts: c.Region.Shifts}
	for _, s := range c.Region.Windows {
		r, err := selection.ParseRange(s)
		if err != nil {
			return nw, fmt.Errorf("region.windows: %w", err)
		}
		nw.Generic = append(nw.Generic, r)
	}
	return nw, nil
}

// RegionPolicy is the region section as a policy.
func (c *Config) RegionPolicy() region.Policy {
	mode, _ := region.ParseMode(c.Region.Mode)
	return region.Policy{
		MinPrimary:    c.Region.MinPrimary,
		MinCandidate:  c.Region.MinCandidate,
		ExploreCycles: c.Region.ExploreCycles,
		Cutoff:        c.Region.ExploreCutoff,
		Mode:          mode,
	}
}

// AlignOptions is the final superposition. Transform is left to the
// caller.
func (c *Config) AlignOptions() superpose.Options {
	return superpose.Options{Cycles: c.Align.Cycles, Cutoff: c.Align.Cutoff}
}

// QualityPolicy is the quality section.
func (c *Config) QualityPolicy() quality.Policy {
	return quality.Policy{MinAligned: c.Quality.MinAligned}
}

// Mirrors turns base urls into mirrors, gzipped first.
func (c *Config) Mirrors() []pdb.Mirror {
	var ret []pdb.Mirror
	for _, b := range c.Store.Mirrors {
		if !strings.HasSuffix(b, "/") {
			b += "/"
		}
		ret = append(ret, pdb.Mirror{Base: b, Suffix: ".cif.gz"}, pdb.Mirror{Base: b, Suffix: ".cif"})
	}
	return ret
}
