package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Player struct {
	Loop     bool    `yaml:"loop"`
	Speed    float64 `yaml:"speed"`
	Autoplay bool    `yaml:"autoplay"`
}

type Export struct {
	// Scale from file units to output units. 0.01 converts cm to m.
	Scale         float32 `yaml:"scale"`
	AnimationName string  `yaml:"animationName"`
	NoSkin        bool    `yaml:"noSkin"`
	CSV           string  `yaml:"csv"`
	// Plot is a comma separated list of Joint.Channel names to chart.
	Plot          string  `yaml:"plot"`

	// StartFrame and EndFrame trim the motion. EndFrame < 0 means the last frame.
	StartFrame int `yaml:"startFrame"`
	EndFrame   int `yaml:"endFrame"`
}

type Preview struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Supersample int     `yaml:"supersample"`
	Yaw         float32 `yaml:"yaw"`
	Pitch       float32 `yaml:"pitch"`
	LineWidth   float32 `yaml:"lineWidth"`
	Background  string  `yaml:"background"`

	// Time selects the pose of still images in seconds.
	Time float64 `yaml:"time"`

	// Animated renders the whole clip into an animated webp at FPS.
	Animated bool    `yaml:"animated"`
	FPS      float64 `yaml:"fps"`
}

type Config struct {
	Player  Player  `yaml:"player"`
	Export  Export  `yaml:"export"`
	Preview Preview `yaml:"preview"`
}

func Default() *Config {
	return &Config{
		Player: Player{Loop: true, Speed: 1, Autoplay: true},
		Export: Export{Scale: 0.01, AnimationName: "motion", CSV: "hierarchy", EndFrame: -1},
		Preview: Preview{
			Width:       512,
			Height:      512,
			Supersample: 2,
			LineWidth:   2,
			Background:  "#ffffff",
			FPS:         30,
		},
	}
}

// Parse reads YAML over Default(). Keys absent from data keep their defaults.
func Parse(data []byte) (*Config, error) {
	conf := Default()
	if err := yaml.UnmarshalStrict(data, conf); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	conf, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return conf, nil
}

// FindFor returns input.bvhconv.yaml next to input if it exists.
func FindFor(input string) string {
	path := input[0:len(input)-len(filepath.Ext(input))] + ".bvhconv.yaml"
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (c *Config) Validate() error {
	if c.Export.Scale == 0 {
		return errors.New("config: export.scale must not be zero")
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		return errors.Errorf("config: invalid preview size %dx%d", c.Preview.Width, c.Preview.Height)
	}
	if c.Preview.FPS <= 0 {
		return errors.New("config: preview.fps must be positive")
	}
	if _, err := ParseColor(c.Preview.Background); err != nil {
		return err
	}
	return nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, errors.Errorf("config: invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, errors.Errorf("config: invalid color %q", s)
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
