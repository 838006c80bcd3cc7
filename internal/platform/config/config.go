// Package config loads process configuration from a file and environment
// overrides. Thresholds ship as defaults, not calibrated constants; tune them
// per deployment.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Models     ModelsConfig     `mapstructure:"models"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
}

// ServerConfig covers the HTTP layer.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// ModelsConfig points at the model files loaded once at process start. A
// missing or unloadable model is fatal; there is no per-request fallback.
type ModelsConfig struct {
	DetectorModel  string `mapstructure:"detector_model" validate:"required"`
	DetectorConfig string `mapstructure:"detector_config"`
	DetectorLabels string `mapstructure:"detector_labels" validate:"required"`
	LivenessModel  string `mapstructure:"liveness_model" validate:"required"`
	EncoderModel   string `mapstructure:"encoder_model" validate:"required"`
	FaceCascade    string `mapstructure:"face_cascade" validate:"required"`
	OCRLanguage    string `mapstructure:"ocr_language" validate:"required"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
}

// ThresholdsConfig holds the decision thresholds.
type ThresholdsConfig struct {
	FaceDistance       float64 `mapstructure:"face_distance" validate:"gt=0,lte=1"`
	LivenessConfidence float64 `mapstructure:"liveness_confidence" validate:"gt=0,lte=1"`
	DetectionMin       float64 `mapstructure:"detection_min" validate:"gte=0,lte=1"`
}

// ExtractionConfig sets registration-path policy.
type ExtractionConfig struct {
	RequiredFields []string `mapstructure:"required_fields" validate:"min=1"`
}

// Load reads configuration from the given file (optional) and ATTEST_*
// environment variables, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ATTEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("models.detector_model", "models/doc-regions.onnx")
	v.SetDefault("models.detector_labels", "models/doc-regions.names")
	v.SetDefault("models.liveness_model", "models/antispoof.onnx")
	v.SetDefault("models.encoder_model", "models/face-embedding.onnx")
	v.SetDefault("models.face_cascade", "models/haarcascade_frontalface_default.xml")
	v.SetDefault("models.ocr_language", "ron")
	v.SetDefault("thresholds.face_distance", 0.6)
	v.SetDefault("thresholds.liveness_confidence", 0.6)
	v.SetDefault("thresholds.detection_min", 0.5)
	v.SetDefault("extraction.required_fields", []string{"cnp", "nume", "prenume"})
}
