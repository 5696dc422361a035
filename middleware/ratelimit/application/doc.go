// Package application contém o caso de uso de admissão: a checagem em duas camadas
// (global por service+method e por service+api+method) seguida do commit dos hits.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(call, now) retorna uma Decision (admitido/rejeitado + retry-after).
package application
