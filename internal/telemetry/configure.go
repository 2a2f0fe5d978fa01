package telemetry

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/qnkhuat/deepread/internal/config"
	"github.com/qnkhuat/deepread/internal/theme"
)

// Asker prompts for a yes/no answer. survey.AskOne satisfies it.
type Asker func(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error

// Configure asks whether to enable anonymous telemetry and stores the answer.
func Configure(t theme.Theme, cfg *config.Config, ask Asker) error {
	if ask == nil {
		ask = survey.AskOne
	}

	t.Info().Println("\nEnable anonymous usage events")
	t.Subtle().Println("Only command names and version information are sent. Documents, prompts and API keys never leave your machine.")

	enabled := cfg.Telemetry.Enabled
	prompt := &survey.Confirm{
		Message: "Enable anonymous usage events?",
		Default: enabled,
		Help:    "You can change this later in the config file under telemetry.enabled.",
	}
	if err := ask(prompt, &enabled); err != nil {
		return err
	}

	cfg.Telemetry.Enabled = enabled
	return nil
}
