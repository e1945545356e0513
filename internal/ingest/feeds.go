package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// FeedsConfig is the YAML feed list:
//
//	feeds:
//	  - name: TypeScript Blog
//	    url: https://devblogs.microsoft.com/typescript/feed/
type FeedsConfig struct {
	Feeds []FeedSource `yaml:"feeds"`
}

func LoadFeeds(path string) ([]FeedSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	return cfg.Feeds, nil
}
