package config

import (
	"fmt"

	"github.com/mattn/go-shellwords"
)

// ParseCommand splits a raw command string into argv form.
func ParseCommand(raw string) (Command, error) {
	parser := shellwords.NewParser()
	argv, err := parser.Parse(raw)
	if err != nil {
		return Command{}, fmt.Errorf("parse command %q: %w", raw, err)
	}
	return Command{Raw: raw, Argv: argv}, nil
}

func mustParseCommand(raw string) Command {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}
