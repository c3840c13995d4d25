// Package config provides the configuration of a sitecrawl run.
//
// A Config starts from NewConfig defaults, is optionally overlaid with the
// matching entry of a YAML site file (.sitecrawl), and finally with CLI
// flags. Validate is called once before crawling starts.
package config
