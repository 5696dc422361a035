// Package domain define contratos e tipos de domínio para o controle de admissão.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Aqui ficam os limites (LimitSpec/ServiceLimits), a chave de escopo, o log de hits
// e o avaliador de janela deslizante, que é uma função pura.
package domain
