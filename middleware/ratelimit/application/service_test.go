package application

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"admission-gateway/middleware/ratelimit/config"
	"admission-gateway/middleware/ratelimit/domain"
	"admission-gateway/middleware/ratelimit/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const t0 int64 = 1_700_000_000_000

func newService(t *testing.T) (Service, *infra.Store) {
	t.Helper()
	limits, err := config.Parse(config.Default())
	require.NoError(t, err)
	store := infra.NewStore(infra.WithCleanupEvery(0))
	return Service{Limits: limits, Hits: store}, store
}

func call(service, api, method string) domain.Call {
	return domain.Call{Service: service, API: api, Method: method}
}

func snapshot(t *testing.T, store *infra.Store, scope domain.Scope) domain.HitLog {
	t.Helper()
	log, _ := store.Snapshot(scope)
	return log
}

func TestService_Decide_OrderServiceScenario(t *testing.T) {
	svc, _ := newService(t)
	c := call("OrderService", "GetOrderById", "GET")

	// 10 chamadas na mesma janela de 1s passam
	for i := 0; i < 10; i++ {
		dec, err := svc.Decide(c, t0+int64(i*10))
		require.NoError(t, err)
		require.True(t, dec.Allowed, "call %d should be admitted", i+1)
	}

	// com 10 hits na janela, 10 <= 10 ainda admite mais uma
	dec, err := svc.Decide(c, t0+400)
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	// com 11 hits as duas camadas barram; a API é reportada
	dec, err = svc.Decide(c, t0+500)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.TierAPI, dec.Tier)
	assert.Equal(t, 500*time.Millisecond, dec.RetryAfter)

	// passada a janela, volta a admitir
	dec, err = svc.Decide(c, t0+1401)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestService_Decide_NPlusOneAtSameInstant(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name  string
		call  domain.Call
		limit int
	}{
		{name: "delivery GET 3/s", call: call("DeliveryService", "Track", "GET"), limit: 3},
		{name: "delivery POST 20/min", call: call("DeliveryService", "Dispatch", "POST"), limit: 20},
		{name: "order GET via api without override", call: call("OrderService", "ListOrders", "GET"), limit: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// a regra inclusiva admite limit+1 chamadas no mesmo instante:
			// a janela pode conter `limit` hits e ainda aceitar mais um.
			for i := 0; i <= tt.limit; i++ {
				dec, err := svc.Decide(tt.call, t0)
				require.NoError(t, err)
				require.True(t, dec.Allowed, "call %d", i+1)
			}
			dec, err := svc.Decide(tt.call, t0)
			require.NoError(t, err)
			assert.False(t, dec.Allowed)
		})
	}
}

func TestService_Decide_WindowRecovery(t *testing.T) {
	svc, store := newService(t)
	c := call("DeliveryService", "Track", "GET")

	for i := 0; i < 4; i++ {
		dec, err := svc.Decide(c, t0)
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}
	dec, err := svc.Decide(c, t0+999)
	require.NoError(t, err)
	require.False(t, dec.Allowed)
	assert.Equal(t, time.Millisecond, dec.RetryAfter)

	// em t0+1000 os hits de t0 já expiraram (ts <= now - G)
	dec, err = svc.Decide(c, t0+1000)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, domain.HitLog{t0 + 1000}, snapshot(t, store, domain.GlobalScope("DeliveryService", "GET")))
}

func TestService_Decide_IdempotentAtSameInstant(t *testing.T) {
	limits := domain.Limits{"S": {
		Global: map[string]domain.LimitSpec{"GET": {Limit: 1, Window: time.Second}},
		APIs:   map[string]map[string]domain.LimitSpec{},
	}}
	store := infra.NewStore()
	svc := Service{Limits: limits, Hits: store}
	c := call("S", "A", "GET")
	scope := domain.GlobalScope("S", "GET")

	for _, at := range []int64{t0, t0 + 600, t0 + 700} {
		dec, err := svc.Decide(c, at)
		require.NoError(t, err)
		require.Equal(t, at != t0+700, dec.Allowed)
	}
	require.Equal(t, domain.HitLog{t0, t0 + 600}, snapshot(t, store, scope))

	// o hit de t0 expira e a chamada passa
	dec, err := svc.Decide(c, t0+1100)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = svc.Decide(c, t0+1200)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.HitLog{t0 + 600, t0 + 1100}, snapshot(t, store, scope))

	// avaliar de novo no mesmo instante dá o mesmo resultado e o mesmo log
	dec2, err := svc.Decide(c, t0+1200)
	require.NoError(t, err)
	assert.Equal(t, dec, dec2)
	assert.Equal(t, domain.HitLog{t0 + 600, t0 + 1100}, snapshot(t, store, scope))
}

func TestService_Decide_PersistsTrimmedLogOnRejection(t *testing.T) {
	limits := domain.Limits{"S": {
		Global: map[string]domain.LimitSpec{"GET": {Limit: 5, Window: time.Second}},
		APIs:   map[string]map[string]domain.LimitSpec{"A": {"GET": {Limit: 0, Window: time.Minute}}},
	}}
	store := infra.NewStore()
	svc := Service{Limits: limits, Hits: store}
	c := call("S", "A", "GET")

	dec, err := svc.Decide(c, t0)
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	// a API (0/min) barra, mas o hit global de t0 já expirou e é descartado
	dec, err = svc.Decide(c, t0+1500)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.TierAPI, dec.Tier)
	assert.Equal(t, 58500*time.Millisecond, dec.RetryAfter)

	global, ok := store.Snapshot(domain.GlobalScope("S", "GET"))
	require.True(t, ok)
	assert.Empty(t, global)
	assert.Equal(t, domain.HitLog{t0}, snapshot(t, store, domain.APIScope("S", "A", "GET")))
}

func TestService_Decide_TwoTierAnd(t *testing.T) {
	limits := domain.Limits{"S": {
		Global: map[string]domain.LimitSpec{"GET": {Limit: 1, Window: time.Second}},
		APIs: map[string]map[string]domain.LimitSpec{
			"Tight": {"GET": {Limit: 0, Window: time.Second}},
			"Loose": {"GET": {Limit: 5, Window: time.Second}},
		},
	}}
	store := infra.NewStore()
	svc := Service{Limits: limits, Hits: store}
	global := domain.GlobalScope("S", "GET")
	tight := domain.APIScope("S", "Tight", "GET")
	loose := domain.APIScope("S", "Loose", "GET")

	// Tight admite uma vez (log vazio), depois a API barra
	dec, err := svc.Decide(call("S", "Tight", "GET"), t0)
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	assert.Equal(t, domain.HitLog{t0}, snapshot(t, store, global))
	assert.Equal(t, domain.HitLog{t0}, snapshot(t, store, tight))

	dec, err = svc.Decide(call("S", "Tight", "GET"), t0+1)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.TierAPI, dec.Tier)
	// nenhuma camada foi mutada pela rejeição
	assert.Equal(t, domain.HitLog{t0}, snapshot(t, store, global))
	assert.Equal(t, domain.HitLog{t0}, snapshot(t, store, tight))

	// Loose passa e comita nas duas camadas
	dec, err = svc.Decide(call("S", "Loose", "GET"), t0+2)
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	assert.Equal(t, domain.HitLog{t0, t0 + 2}, snapshot(t, store, global))
	assert.Equal(t, domain.HitLog{t0 + 2}, snapshot(t, store, loose))

	// agora a global está com 2 > 1: Loose é barrada pela global e a API não muda
	dec, err = svc.Decide(call("S", "Loose", "GET"), t0+3)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, domain.TierGlobal, dec.Tier)
	assert.Equal(t, domain.HitLog{t0 + 2}, snapshot(t, store, loose))
}

func TestService_Decide_APIWithoutOverrideHasNoLog(t *testing.T) {
	svc, store := newService(t)

	for _, api := range []string{"Track", "Anything", "Else"} {
		dec, err := svc.Decide(call("DeliveryService", api, "POST"), t0)
		require.NoError(t, err)
		require.True(t, dec.Allowed)

		_, ok := store.Snapshot(domain.APIScope("DeliveryService", api, "POST"))
		assert.False(t, ok)
	}
	assert.Len(t, snapshot(t, store, domain.GlobalScope("DeliveryService", "POST")), 3)
}

func TestService_Decide_Errors(t *testing.T) {
	svc, store := newService(t)

	_, err := svc.Decide(call("PaymentService", "Pay", "GET"), t0)
	var svcErr *domain.UnknownServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "PaymentService", svcErr.Service)

	_, err = svc.Decide(call("DeliveryService", "Track", "DELETE"), t0)
	require.ErrorIs(t, err, domain.ErrUnknownMethod)

	// API declarada sem o método pedido também é erro de configuração
	limits := domain.Limits{"S": {
		Global: map[string]domain.LimitSpec{"GET": {Limit: 1, Window: time.Second}, "PUT": {Limit: 1, Window: time.Second}},
		APIs:   map[string]map[string]domain.LimitSpec{"A": {"GET": {Limit: 1, Window: time.Second}}},
	}}
	_, err = Service{Limits: limits, Hits: store}.Decide(call("S", "A", "PUT"), t0)
	var mErr *domain.UnknownMethodError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "A", mErr.API)

	_, err = svc.Decide(call("OrderService", "", "GET"), t0)
	require.ErrorIs(t, err, domain.ErrInvalidCall)

	_, err = Service{Limits: svc.Limits}.Decide(call("OrderService", "X", "GET"), t0)
	require.ErrorIs(t, err, domain.ErrNoHitStore)

	_, err = Service{Hits: store}.Decide(call("OrderService", "X", "GET"), t0)
	require.ErrorIs(t, err, domain.ErrUnknownService)

	// nenhuma falha de lookup criou logs
	assert.Equal(t, 0, store.Len())
}

func TestService_Decide_NormalizesStructuredCall(t *testing.T) {
	svc, store := newService(t)

	parsed, err := domain.ParseCall("OrderService:GetOrderById:get")
	require.NoError(t, err)

	for _, c := range []domain.Call{
		call("OrderService", "GetOrderById", "get"),
		call(" OrderService ", "GetOrderById", " Get "),
		parsed,
	} {
		dec, err := svc.Decide(c, t0)
		require.NoError(t, err, c.String())
		assert.True(t, dec.Allowed)
	}

	// as três formas caem no mesmo escopo
	assert.Len(t, snapshot(t, store, domain.APIScope("OrderService", "GetOrderById", "GET")), 3)
	assert.Equal(t, 1, store.Len())
}

func TestService_Decide_ConcurrentCallsNeverExceedLimit(t *testing.T) {
	svc, store := newService(t)
	c := call("OrderService", "CreateOrder", "POST")

	const callers = 64
	var admitted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			dec, err := svc.Decide(c, t0)
			if err == nil && dec.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	// CreateOrder POST: 5/min na API; a regra inclusiva admite 6
	assert.Equal(t, int64(6), admitted.Load())
	assert.Len(t, snapshot(t, store, domain.APIScope("OrderService", "CreateOrder", "POST")), 6)
	assert.Len(t, snapshot(t, store, domain.GlobalScope("OrderService", "POST")), 6)
}
