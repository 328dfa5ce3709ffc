package types

import (
	"haidetect.com/hai/logger"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const DefaultConfigurationName = "hai_detect"

var ErrEmptyConfiguration = errors.New("configuration has no classifications")

type LexiconConfig struct {
	Targets   string `yaml:"targets" json:"targets"`
	Modifiers string `yaml:"modifiers" json:"modifiers"`
}

// Configuration is one revision of the classification rules.
type Configuration struct {
	Name       string `yaml:"-" json:"name"`
	FilePath   string `yaml:"-" json:"file_path"`
	Annotator  string `yaml:"annotator" json:"annotator"`
	// target category -> annotation type
	TargetTypes map[string]AnnotationType `yaml:"target_types" json:"target_types"`
	// annotation type -> assertion -> classification label
	Classifications    map[AnnotationType]map[Assertion]string `yaml:"classifications" json:"classifications"`
	Exclusions         []string                                `yaml:"exclusions" json:"exclusions"`
	MarkMissingAnatomy bool                                    `yaml:"mark_missing_anatomy" json:"mark_missing_anatomy"`
	Lexicon            LexiconConfig                           `yaml:"lexicon" json:"lexicon"`
}

// LexiconPaths resolves lexicon files relative to the configuration file.
func (cfg Configuration) LexiconPaths() (targets string, modifiers string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || cfg.FilePath == "" {
			return p
		}
		return filepath.Join(filepath.Dir(cfg.FilePath), p)
	}
	return resolve(cfg.Lexicon.Targets), resolve(cfg.Lexicon.Modifiers)
}

func LoadConfiguration(filePath string) (Configuration, error) {
	cfg := Configuration{
		Name:     strings.TrimSuffix(filepath.Base(filePath), ".yaml"),
		FilePath: filePath,
	}
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if len(cfg.Classifications) == 0 {
		return cfg, fmt.Errorf("%s: %w", filePath, ErrEmptyConfiguration)
	}
	return cfg, nil
}

// LoadConfigurations reads every *.yaml file of dirPath. Broken files are logged and skipped.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	cfgLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			cfg, err := LoadConfiguration(filepath.Join(dirPath, name))
			if err != nil {
				cfgLogger.Err(err).Str("file", name).Msg("skipping configuration")
				return
			}
			configChan <- cfg
		}(f.Name())
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(files))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	return configs, nil
}

// FindConfiguration returns the configuration with the given name.
func FindConfiguration(configs []Configuration, name string) (Configuration, bool) {
	for _, cfg := range configs {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return Configuration{}, false
}
