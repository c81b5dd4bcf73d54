package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// GenerationProfile: параметры модели и системные инструкции.
type GenerationProfile struct {
	Model                 string  `yaml:"model"`
	Temperature           float32 `yaml:"temperature"`
	MaxTokens             int     `yaml:"max_tokens"`
	SystemInstruction     string  `yaml:"system_instruction"`
	EditSystemInstruction string  `yaml:"edit_system_instruction"`
}

func DefaultGenerationProfile() GenerationProfile {
	return GenerationProfile{
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.5,
		MaxTokens:   4096,
	}
}

// LoadGenerationProfile читает YAML поверх значений по умолчанию.
// Отсутствующий файл не ошибка: остаются значения по умолчанию.
func LoadGenerationProfile(path string) (GenerationProfile, error) {
	profile := DefaultGenerationProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("config: чтение профиля генерации: %w", err)
	}

	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("config: разбор профиля генерации %s: %w", path, err)
	}
	if profile.Temperature < 0 || profile.Temperature > 2 {
		return profile, fmt.Errorf("config: temperature %.2f вне диапазона [0, 2]", profile.Temperature)
	}
	if profile.MaxTokens <= 0 {
		return profile, fmt.Errorf("config: max_tokens должен быть положительным")
	}
	return profile, nil
}
