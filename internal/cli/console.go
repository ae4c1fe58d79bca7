package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/zeromicro/go-zero/core/logx"

	"promptrun/internal/config"
)

var (
	personaColor = color.New(color.FgHiMagenta)
	humanColor   = color.New(color.FgGreen)
	botColor     = color.New(color.FgRed)
)

// SetupLogging configures logx for short-lived CLI processes.
func SetupLogging(level string) {
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		logx.SetLevel(logx.DebugLevel)
	case "error":
		logx.SetLevel(logx.ErrorLevel)
	default:
		logx.SetLevel(logx.InfoLevel)
	}
}

// PrintPersona shows the persona prompt driving the bot's behaviour.
func PrintPersona(persona string) {
	personaColor.Println("AI Prompt:")
	personaColor.Println(persona)
}

// PromptHuman prints the input prompt for interactive runs.
func PromptHuman() {
	humanColor.Print("Human: ")
}

// PrintCompletion shows the service's reply.
func PrintCompletion(text string) {
	botColor.Println("AI Bot:")
	botColor.Println(text)
}

// ConfigSummaryLines returns human readable lines describing the loaded config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	persona := "inline"
	if p := cfg.TemplatePath(); p != "" {
		persona = p
	}
	transcripts := "disabled"
	if cfg.Transcript.Enabled {
		transcripts = cfg.TranscriptDir()
	}
	llmSection := "not configured"
	switch {
	case strings.TrimSpace(cfg.LLM.File) != "":
		llmSection = cfg.LLM.File
	case cfg.LLM.Value != nil:
		llmSection = "inline"
	}

	return []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Persona: %s", persona),
		fmt.Sprintf("Transcripts: %s", transcripts),
		fmt.Sprintf("LLM config: %s", llmSection),
	}
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}
