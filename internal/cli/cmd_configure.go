package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/habitsync/internal/config"
)

var (
	errNoConfigPath = errors.New("cannot determine global config path (set HOME or XDG_CONFIG_HOME)")
	errAborted      = errors.New("aborted")
	errEmptyValue   = errors.New("value cannot be empty")
)

// ConfigureCmd returns the configure command.
func ConfigureCmd(a *app) *Command {
	flags := flag.NewFlagSet("configure", flag.ContinueOnError)
	userID := flags.String("user-id", "", "Habitica user id")
	apiKey := flags.String("api-key", "", "Habitica API token")

	return &Command{
		Flags: flags,
		Usage: "configure [--user-id=ID] [--api-key=KEY]",
		Short: "Store Habitica credentials",
		Long: "Writes the Habitica user id and API token to the global config file, keeping " +
			"any other settings and comments. Values not given as flags are prompted for.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execConfigure(a, o, *userID, *apiKey)
		},
	}
}

func execConfigure(a *app, o *IO, userID, apiKey string) error {
	path := config.GlobalConfigPath(a.env)
	if path == "" {
		return errNoConfigPath
	}

	if userID == "" || apiKey == "" {
		var err error

		if isTerminal(a.stdin) {
			userID, apiKey, err = promptCredentials(userID, apiKey)
		} else {
			userID, apiKey, err = readCredentials(o, userID, apiKey)
		}

		if err != nil {
			return err
		}
	}

	err := config.SaveCredentials(a.fsys, path, userID, apiKey)
	if err != nil {
		return err
	}

	o.Println("Saved credentials to", path)

	return nil
}

func promptCredentials(userID, apiKey string) (string, string, error) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	ask := func(current, label string, secret bool) (string, error) {
		if current != "" {
			return current, nil
		}

		var (
			value string
			err   error
		)

		if secret {
			value, err = line.PasswordPrompt(label)
		} else {
			value, err = line.Prompt(label)
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return "", errAborted
		}

		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
		}

		return requireValue(value, label)
	}

	userID, err := ask(userID, "Habitica user id: ", false)
	if err != nil {
		return "", "", err
	}

	apiKey, err = ask(apiKey, "Habitica API token: ", true)
	if err != nil {
		return "", "", err
	}

	return userID, apiKey, nil
}

func readCredentials(o *IO, userID, apiKey string) (string, string, error) {
	var err error

	if userID == "" {
		userID, err = readValue(o, "user id")
		if err != nil {
			return "", "", err
		}
	}

	if apiKey == "" {
		apiKey, err = readValue(o, "API token")
		if err != nil {
			return "", "", err
		}
	}

	return userID, apiKey, nil
}

func readValue(o *IO, label string) (string, error) {
	value, err := o.ReadLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", label, err)
	}

	return requireValue(value, label)
}

func requireValue(value, label string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(label, ": "), errEmptyValue)
	}

	return value, nil
}
