package ui

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"golang.org/x/term"

	"github.com/iishyfishyy/guestdist/internal/config"
)

// IsTerminal reports whether stdin is interactive
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ShowMenu asks the user to pick one option and returns its index
func ShowMenu(message string, options []string) (int, error) {
	var selected int
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return -1, err
	}

	return selected, nil
}

// PromptYesNo asks a yes/no question
func PromptYesNo(message string, def bool) (bool, error) {
	answer := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}

	return answer, nil
}

// PromptGuestIDs asks for the guests to rank
func PromptGuestIDs() ([]string, error) {
	var raw string
	prompt := &survey.Input{
		Message: "Guest ids to rank (comma or space separated):",
	}

	if err := survey.AskOne(prompt, &raw, survey.WithValidator(survey.Required)); err != nil {
		return nil, err
	}

	return ParseGuestIDs(raw), nil
}

// ParseGuestIDs splits a list of ids on commas and whitespace
func ParseGuestIDs(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// PromptSource asks where scores are loaded from at startup
func PromptSource(current config.SourceConfig) (config.SourceConfig, error) {
	kinds := []string{string(config.SourceNone), string(config.SourceYAML), string(config.SourceSQLite)}

	var kind string
	if err := survey.AskOne(&survey.Select{
		Message: "Load scores at startup from:",
		Options: kinds,
		Default: string(current.Kind),
		Description: func(value string, _ int) string {
			switch config.SourceKind(value) {
			case config.SourceYAML:
				return "a YAML dataset file"
			case config.SourceSQLite:
				return "a database written by 'guestdist import'"
			default:
				return "start with an empty store"
			}
		},
	}, &kind); err != nil {
		return current, err
	}

	src := config.SourceConfig{Kind: config.SourceKind(kind)}
	if src.Kind == config.SourceNone {
		return src, nil
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Path:",
		Default: current.Path,
	}, &src.Path, survey.WithValidator(survey.Required)); err != nil {
		return current, err
	}

	return src, nil
}

// PromptServer asks for the HTTP listen address
func PromptServer(current config.ServerConfig) (config.ServerConfig, error) {
	cfg := current
	if err := survey.AskOne(&survey.Input{
		Message: "HTTP listen address:",
		Default: current.Addr,
	}, &cfg.Addr, survey.WithValidator(survey.Required)); err != nil {
		return current, err
	}
	return cfg, nil
}

// PromptParallelism asks how many guests are ranked concurrently
func PromptParallelism(current int) (int, error) {
	var raw string
	if err := survey.AskOne(&survey.Input{
		Message: "Guests ranked concurrently:",
		Default: strconv.Itoa(current),
	}, &raw, survey.WithValidator(validatePositiveInt)); err != nil {
		return current, err
	}

	n, _ := strconv.Atoi(raw)
	return n, nil
}

func validatePositiveInt(ans interface{}) error {
	s, _ := ans.(string)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of at least 1")
	}
	return nil
}
