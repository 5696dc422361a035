package config

import (
	"fmt"
	"os"

	"admission-gateway/middleware/ratelimit/domain"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// Decode converte um valor aninhado genérico (ex.: YAML/JSON já decodificado) em Raw.
// Campos desconhecidos são erro, para que um typo não vire limite ausente.
func Decode(input map[string]any) (Raw, error) {
	var raw Raw
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Raw{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return Raw{}, &domain.ConfigError{Err: err}
	}
	return raw, nil
}

// Load lê um arquivo YAML de limites e devolve o modelo validado.
func Load(path string) (domain.Limits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read limits file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes faz o mesmo que Load a partir do conteúdo já lido.
func LoadBytes(data []byte) (domain.Limits, error) {
	var input map[string]any
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, &domain.ConfigError{Err: err}
	}
	if input == nil {
		return nil, &domain.ConfigError{Path: "serviceLimits", Err: domain.ErrMissingField}
	}
	raw, err := Decode(input)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}
