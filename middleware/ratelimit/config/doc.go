// Package config converte a configuração bruta de limites (YAML, map genérico ou
// literal Go) no modelo normalizado domain.Limits.
//
// A conversão é feita uma vez na inicialização. Qualquer erro aborta a carga:
// nunca existe um modelo parcialmente montado.
package config
