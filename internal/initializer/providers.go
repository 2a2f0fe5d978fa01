package initializer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/provider"
)

const doneOption = "Done"

func (i *Initializer) askOne(p survey.Prompt, response interface{}) error {
	if i.ask != nil {
		return i.ask(p, response)
	}
	return survey.AskOne(p, response)
}

// ConfigureProviders lets the user configure and validate providers until
// they choose Done with at least one provider enabled.
func (i *Initializer) ConfigureProviders(ctx context.Context) error {
	i.theme.Info().Println("\nConfigure LLM providers")
	reg := i.controller.Registry()

	for {
		options := make([]string, 0, len(reg.Providers())+1)
		names := map[string]string{}
		for _, p := range reg.Providers() {
			spec, err := reg.Spec(p.Name)
			if err != nil {
				return err
			}
			label := spec.DisplayName()
			if p.Enabled {
				label += " (enabled)"
			}
			options = append(options, label)
			names[label] = p.Name
		}
		options = append(options, doneOption)

		var choice string
		if err := i.askOne(&survey.Select{Message: "Choose a provider to configure:", Options: options, Default: options[0]}, &choice); err != nil {
			return err
		}

		if choice == doneOption {
			if reg.AnyEnabled() {
				return nil
			}
			i.theme.Warning().Println("Enable at least one provider before continuing.")
			continue
		}

		if err := i.ConfigureProvider(ctx, names[choice]); err != nil {
			return err
		}
	}
}

// ConfigureProvider prompts for the credentials of one provider and
// validates them with one model listing. Validation failures are reported
// and do not abort the wizard.
func (i *Initializer) ConfigureProvider(ctx context.Context, name string) error {
	reg := i.controller.Registry()
	spec, err := reg.Spec(name)
	if err != nil {
		return err
	}
	current, err := reg.Get(name)
	if err != nil {
		return err
	}

	creds := current.Credentials
	for _, field := range spec.RequiredFields() {
		switch field {
		case provider.FieldAPIKey:
			if creds.APIKey, err = i.askAPIKey(spec, creds.APIKey); err != nil {
				return err
			}
		case provider.FieldBaseURL:
			if creds.BaseURL, err = i.askBaseURL(spec, creds.BaseURL, true); err != nil {
				return err
			}
		}
	}
	if spec.DefaultBaseURL() != "" {
		if creds.BaseURL, err = i.askBaseURL(spec, creds.BaseURL, false); err != nil {
			return err
		}
	}

	if err := i.controller.ConfigureProvider(ctx, name, creds); err != nil {
		return err
	}

	i.theme.Subtle().Printf("Checking %s...\n", spec.DisplayName())
	models, err := i.controller.EnableProvider(ctx, name)
	if err != nil {
		i.log.Warn("Provider validation failed", map[string]interface{}{"provider": name, logger.ErrorKey: err.Error()})
		i.theme.Error().Println(err.Error())

		var rejected *llm.RejectedError
		if errors.As(err, &rejected) || llm.IsUnreachable(err) {
			i.theme.Subtle().Println(llm.Guidance(spec.Kind()))
		}
		return nil
	}

	i.theme.Success().Printf("%s enabled with %d models.\n", spec.DisplayName(), len(models))
	return nil
}

func (i *Initializer) askAPIKey(spec provider.Spec, existing string) (string, error) {
	if existing != "" {
		i.theme.Warning().Println("API key is already set. Press Enter to keep the existing key or enter a new one.")
	}

	var key string
	prompt := &survey.Password{
		Message: fmt.Sprintf("Enter your %s API key:", spec.DisplayName()),
		Help:    "Stored locally and sent only to the provider",
	}
	if err := i.askOne(prompt, &key); err != nil {
		return "", err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return existing, nil
	}
	return key, nil
}

func (i *Initializer) askBaseURL(spec provider.Spec, existing string, required bool) (string, error) {
	def := existing
	help := "Leave empty to use " + spec.DefaultBaseURL()
	if required {
		if def == "" && spec.Kind() == llm.Ollama {
			def = provider.OllamaHint
		}
		help = "The address of your local server"
	}

	var baseURL string
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s base URL:", spec.DisplayName()),
		Default: def,
		Help:    help,
	}
	if err := i.askOne(prompt, &baseURL); err != nil {
		return "", err
	}
	return strings.TrimSpace(baseURL), nil
}

// SelectModel asks for the (provider, model) pair to chat with.
func (i *Initializer) SelectModel(ctx context.Context) error {
	var options []string
	pairs := map[string]provider.Selection{}
	for _, p := range i.controller.Registry().Providers() {
		if !p.Enabled {
			continue
		}
		for _, m := range p.Models {
			label := p.Name + "/" + m
			options = append(options, label)
			pairs[label] = provider.Selection{Provider: p.Name, Model: m}
		}
	}

	if len(options) == 0 {
		i.theme.Warning().Println("No models available yet. Refresh a provider with 'deepread providers refresh <name>'.")
		return nil
	}

	prompt := &survey.Select{Message: "Select a model:", Options: options, Default: options[0]}
	if sel, ok := i.controller.Registry().Selection(); ok {
		if label := sel.Provider + "/" + sel.Model; pairs[label] == sel {
			prompt.Default = label
		}
	}

	var choice string
	if err := i.askOne(prompt, &choice); err != nil {
		return err
	}

	sel, ok := pairs[choice]
	if !ok {
		return fmt.Errorf("unknown model %q", choice)
	}
	return i.controller.Select(ctx, sel.Provider, sel.Model)
}
