package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

type IntentKind string

const (
	IntentOpen  IntentKind = "open"
	IntentClose IntentKind = "close"
)

// OrderIntent is what the decision pipeline asks an executor to do.
// Open intents carry the protective levels, close intents carry a reason.
type OrderIntent struct {
	Kind        IntentKind `yaml:"kind" json:"kind" validate:"required,oneof=open close"`
	PositionID  string     `yaml:"position_id" json:"position_id" validate:"required,uuid"`
	Symbol      string     `yaml:"symbol" json:"symbol" validate:"required"`
	Side        Side       `yaml:"side" json:"side" validate:"required,oneof=long short"`
	Price       float64    `yaml:"price" json:"price" validate:"gt=0"`
	Size        float64    `yaml:"size" json:"size" validate:"gt=0"`
	Fraction    float64    `yaml:"fraction" json:"fraction" validate:"gt=0,lte=1"`
	ATR         float64    `yaml:"atr" json:"atr" validate:"required_if=Kind open,gte=0"`
	StopLoss    float64    `yaml:"stop_loss" json:"stop_loss" validate:"required_if=Kind open,gte=0"`
	TakeProfit1 float64    `yaml:"take_profit_1" json:"take_profit_1" validate:"required_if=Kind open,gte=0"`
	TakeProfit2 float64    `yaml:"take_profit_2" json:"take_profit_2" validate:"required_if=Kind open,gte=0"`
	Reason      ExitReason `yaml:"reason" json:"reason" validate:"required_if=Kind close"`
	// Final is set on the close intent that takes the position to zero.
	Final bool      `yaml:"final" json:"final"`
	Time  time.Time `yaml:"time" json:"time" validate:"required"`
}

var validate = validator.New()

// Validate validates the OrderIntent struct.
func (o *OrderIntent) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderIntent, "invalid order intent", err)
	}

	return nil
}

// Fill is the executed result of an intent.
type Fill struct {
	OrderID string
	Price   float64
	Size    float64
	Time    time.Time
}
