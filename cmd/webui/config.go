package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// profile saves the arguments of one web ui function so they need not be
// pasted on every call. Example:
//
//	host = "http://127.0.0.1:7860/"
//	fn_index = 13
//	args = '["", "", "None", "None", 20, "Euler a", false, false, 1, 1, 7, -1]'
//	prompt = "a kitten in a box"
type profile struct {
	Host           string `toml:"host"`
	FnIndex        *int   `toml:"fn_index"`
	Args           string `toml:"args"`
	Prompt         string `toml:"prompt"`
	NegativePrompt string `toml:"negative_prompt"`
}

func loadProfile(path string) (profile, error) {
	var p profile
	if path == "" {
		return p, nil
	}
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return p, nil
}
