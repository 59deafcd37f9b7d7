package database

import "time"

type Config struct {
	// Path to the bbolt file
	FilePath string `envconfig:"FILE_PATH" default:"partyhost.db"`

	// How long Open waits for the file lock
	OpenTimeout time.Duration `envconfig:"OPEN_TIMEOUT" default:"1s"`
}
