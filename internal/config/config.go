package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"

	"promptrun/pkg/confkit"
	llmpkg "promptrun/pkg/llm"
)

// PromptConf selects the persona prompt. Template names a text/template
// file; Persona supplies the text inline. Template wins when both are set.
type PromptConf struct {
	Template string `json:",optional"`
	Persona  string `json:",optional"`
}

// TranscriptConf controls where exchange records are written.
type TranscriptConf struct {
	Dir     string `json:",default=transcripts"`
	Enabled bool   `json:",default=true"`
}

type Config struct {
	// Env indicates the running environment: test | dev | prod.
	Env        string         `json:",default=dev"`
	LogLevel   string         `json:",default=info"`
	Prompt     PromptConf     `json:",optional"`
	Transcript TranscriptConf `json:",optional"`

	LLM confkit.Section[llmpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "dev"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if strings.TrimSpace(c.Prompt.Template) == "" && strings.TrimSpace(c.Prompt.Persona) == "" {
		return errors.New("config: prompt.template or prompt.persona is required")
	}
	if c.Transcript.Enabled && strings.TrimSpace(c.Transcript.Dir) == "" {
		return errors.New("config: transcript.dir is required when transcripts are enabled")
	}
	return nil
}

// TemplatePath resolves the persona template path against the config dir.
// Returns "" when the persona is supplied inline.
func (c *Config) TemplatePath() string {
	if strings.TrimSpace(c.Prompt.Template) == "" {
		return ""
	}
	return confkit.ResolvePath(c.baseDir, c.Prompt.Template)
}

// TranscriptDir resolves the transcript directory against the config dir.
func (c *Config) TranscriptDir() string {
	return confkit.ResolvePath(c.baseDir, c.Transcript.Dir)
}

func (c *Config) hydrateSections() error {
	if err := c.LLM.Hydrate(c.baseDir, llmpkg.LoadConfig); err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	return nil
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
