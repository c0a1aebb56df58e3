package config

import "errors"

func errConfig(msg string) error {
	return errors.New("config: " + msg)
}
