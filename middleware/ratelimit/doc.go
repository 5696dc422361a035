// Package ratelimit fornece adapters para o controle de admissão por janela deslizante.
//
// Visão geral (camadas):
//
//   - domain: contratos, tipos e o avaliador de janela (sem dependência de net/http)
//   - config: configuração bruta (YAML/map/literal) -> domain.Limits
//   - application: caso de uso (decisão em duas camadas: global + API)
//   - infra: implementações concretas (store de hits em memória, estatísticas)
//   - ratelimit (este pacote): middleware HTTP e Gate para despachantes sem HTTP
//
// Fluxo no gateway:
//
//  1. Extrai (service, api, method) da requisição (rota chi, path ou header)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com Retry-After; escopo desconhecido vira 404/405
//  4. Se permitido, chama o próximo handler (ex: reverse proxy)
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como LIMITS_FILE, CALL_HEADER, HITS_IDLE_TTL e RATE_STATS_ENABLED.
package ratelimit
