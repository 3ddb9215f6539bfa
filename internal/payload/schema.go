package payload

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// schemas maps a payload name to a zero value of its wire struct.
//
//nolint:exhaustruct // empty structs are intentional for schema generation
var schemas = map[string]any{
	"envelope":          Envelope{},
	"market_snapshot":   MarketSnapshotWire{},
	"market_tick":       TickerWire{},
	"deployment_status": DeploymentWire{},
	"user_data":         UserDataWire{},
	"ticker_start":      TickerStartWire{},
	"error":             ServerErrorWire{},
	"warning":           WarningWire{},
	"unauthorized":      UnauthorizedWire{},
	"hello":             HelloWire{},
	"subscribe":         SubscribeWire{},
}

// SchemaNames returns the payload names accepted by Schema, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Schema returns the JSON schema of the named payload.
func Schema(name string) (string, error) {
	v, ok := schemas[name]
	if !ok {
		return "", fmt.Errorf("unknown payload: %s", name)
	}

	return ToJSONSchema(v)
}

// ToJSONSchema converts a struct to a JSON schema. Decimals are described as
// either a number or a numeric string.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.Mapper = func(typ reflect.Type) *jsonschema.Schema {
		if typ == reflect.TypeOf(decimal.Decimal{}) {
			return &jsonschema.Schema{
				OneOf: []*jsonschema.Schema{
					{Type: "number"},
					{Type: "string", Pattern: `^-?[0-9]+(\.[0-9]+)?$`},
				},
			}
		}

		return nil
	}

	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
