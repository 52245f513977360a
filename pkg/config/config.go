// Package config загружает YAML-конфигурацию с подстановкой переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator проверяет согласованность загруженной конфигурации.
type Validator interface {
	Validate() error
}

// Load читает YAML-файл в target. Значения вида $VAR и ${VAR}
// подставляются из окружения до разбора. Если target реализует
// Validator, результат сразу проверяется.
func Load[T any](filename string, target *T) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), target); err != nil {
		return fmt.Errorf("parse config %s: %w", filename, err)
	}
	return validate(target)
}

// LoadOrDefault загружает файл, если он существует, иначе оставляет
// target нетронутым. Отсутствующий файл не ошибка: значения по
// умолчанию должны быть пригодны сами по себе, поэтому проверяются
// и они.
func LoadOrDefault[T any](filename string, target *T) error {
	_, err := os.Stat(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return validate(target)
	case err != nil:
		return fmt.Errorf("stat config %s: %w", filename, err)
	}
	return Load(filename, target)
}

func validate[T any](target *T) error {
	v, ok := any(target).(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}
