package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"promptrun/internal/cli"
	"promptrun/internal/config"
	"promptrun/internal/runner"
	"promptrun/internal/transcript"
	llmpkg "promptrun/pkg/llm"
	promptpkg "promptrun/pkg/prompt"
)

var (
	configFile = flag.String("f", "etc/promptrun.yaml", "the config file")
	question   = flag.String("q", "", "question text; falls back to args, then stdin")
	modelFlag  = flag.String("model", "", "override the configured model alias")
)

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logx.MustSetup(logx.LogConf{})
		fatalf("load config: %v", err)
	}
	cli.SetupLogging(cfg.LogLevel)
	cli.LogConfigSummary(cfg)

	llmCfg := cfg.LLM.Value
	if llmCfg == nil {
		llmCfg, err = llmpkg.ConfigFromEnv()
		if err != nil {
			fatalf("llm config: %v", err)
		}
	}
	client, err := llmpkg.NewClient(llmCfg)
	if err != nil {
		fatalf("initialise llm client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	persona, err := loadPersona(cfg)
	if err != nil {
		fatalf("load persona: %v", err)
	}

	opts := []runner.Option{}
	if *modelFlag != "" {
		opts = append(opts, runner.WithModel(*modelFlag))
	}
	run, err := runner.New(client, persona, opts...)
	if err != nil {
		fatalf("initialise runner: %v", err)
	}

	personaText, err := run.Persona()
	if err != nil {
		fatalf("render persona: %v", err)
	}
	cli.PrintPersona(personaText)

	q, err := readQuestion()
	if err != nil {
		fatalf("read question: %v", err)
	}

	result, runErr := run.Run(context.Background(), q)

	if cfg.Transcript.Enabled {
		rec := &transcript.Record{
			Persona:       personaText,
			PersonaDigest: persona.Digest(),
			Question:      q,
			Success:       runErr == nil,
		}
		if runErr != nil {
			rec.ErrorMessage = runErr.Error()
		} else {
			rec.Answer = result.Answer
			rec.Model = result.Model
			rec.Usage = result.Usage
		}
		if path, werr := transcript.NewWriter(cfg.TranscriptDir()).Write(rec); werr != nil {
			logx.Errorf("write transcript: %v", werr)
		} else {
			logx.Infof("transcript written to %s", path)
		}
	}

	if runErr != nil {
		fatalf("completion failed: %v", runErr)
	}
	cli.PrintCompletion(result.Answer)
}

func loadPersona(cfg *config.Config) (*promptpkg.Template, error) {
	if path := cfg.TemplatePath(); path != "" {
		return promptpkg.Load(path, nil)
	}
	return promptpkg.FromString("persona", cfg.Prompt.Persona)
}

// readQuestion takes the question from -q, then positional args, then a
// single line of stdin.
func readQuestion() (string, error) {
	if q := strings.TrimSpace(*question); q != "" {
		return q, nil
	}
	if args := flag.Args(); len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	cli.PromptHuman()
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
