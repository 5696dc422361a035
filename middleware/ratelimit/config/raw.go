package config

// Raw é o formato bruto, o mesmo do arquivo YAML:
//
//	serviceLimits:
//	  - service: OrderService
//	    globalLimits:
//	      GET: {limit: 10, granularity: second}
//	    apiLimits:
//	      - api: GetOrderById
//	        methods:
//	          GET: {limit: 10, granularity: second}
type Raw struct {
	ServiceLimits []RawService `yaml:"serviceLimits" mapstructure:"serviceLimits"`
}

type RawService struct {
	Service      string              `yaml:"service" mapstructure:"service"`
	GlobalLimits map[string]RawLimit `yaml:"globalLimits" mapstructure:"globalLimits"`
	APILimits    []RawAPI            `yaml:"apiLimits" mapstructure:"apiLimits"`
}

type RawAPI struct {
	API     string              `yaml:"api" mapstructure:"api"`
	Methods map[string]RawLimit `yaml:"methods" mapstructure:"methods"`
}

// RawLimit usa ponteiro em Limit para diferenciar "ausente" de zero.
type RawLimit struct {
	Limit       *int   `yaml:"limit" mapstructure:"limit"`
	Granularity string `yaml:"granularity" mapstructure:"granularity"`
}

func limit(n int, granularity string) RawLimit {
	return RawLimit{Limit: &n, Granularity: granularity}
}

// Default devolve os limites embutidos, usados quando nenhum arquivo é informado.
func Default() Raw {
	return Raw{ServiceLimits: []RawService{
		{
			Service: "OrderService",
			GlobalLimits: map[string]RawLimit{
				"GET":  limit(10, "second"),
				"POST": limit(50, "minute"),
			},
			APILimits: []RawAPI{
				{
					API: "CreateOrder",
					Methods: map[string]RawLimit{
						"GET":  limit(15, "second"),
						"POST": limit(5, "minute"),
					},
				},
				{
					API: "GetOrderById",
					Methods: map[string]RawLimit{
						"GET":  limit(10, "second"),
						"POST": limit(10, "second"),
					},
				},
			},
		},
		{
			Service: "DeliveryService",
			GlobalLimits: map[string]RawLimit{
				"GET":  limit(3, "second"),
				"POST": limit(20, "minute"),
			},
			APILimits: []RawAPI{},
		},
	}}
}
