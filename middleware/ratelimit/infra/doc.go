// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Store: logs de hits em memória por escopo, com lock por escopo global e janitor
//   - MemoryStatsStore / RedisStatsStore / PrometheusStatsStore: estatísticas das decisões
package infra
