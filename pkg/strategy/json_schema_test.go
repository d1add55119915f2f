package strategy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

type periods struct {
	Fast int `yaml:"fast" jsonschema:"minimum=1,default=9"`
	Slow int `yaml:"slow" jsonschema:"minimum=1,default=21"`
}

type crossoverConfig struct {
	Symbol  string  `yaml:"symbol" jsonschema:"default=BTCUSDT"`
	Periods periods `yaml:"periods"`
}

func (suite *JsonSchemaTestSuite) TestNestedStructsAreInlined() {
	schema, err := ToJSONSchema(&crossoverConfig{})
	suite.Require().NoError(err)

	var doc map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &doc))

	suite.NotContains(doc, "$defs")

	properties := doc["properties"].(map[string]any)
	nested := properties["periods"].(map[string]any)["properties"].(map[string]any)

	suite.Equal(float64(9), nested["fast"].(map[string]any)["default"])
	suite.Equal("BTCUSDT", properties["symbol"].(map[string]any)["default"])
}
