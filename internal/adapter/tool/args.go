package tool

import (
	"fmt"
	"time"
	"unicode/utf8"

	"browser-dispatch/internal/domain/entity"

	"github.com/mitchellh/mapstructure"
)

const (
	defaultElementTimeout = 10.0
	maxElementTimeout     = 120.0
	maxWaitSeconds        = 60.0
	previewLen            = 200
)

var selectorField = entity.Field{
	Name:        "selector",
	Type:        entity.TypeString,
	Required:    true,
	MinLength:   1,
	Description: "CSS selector identifying the target element. XPath is accepted when it starts with '/' or 'xpath='.",
}

var timeoutField = entity.Field{
	Name:        "timeout",
	Type:        entity.TypeNumber,
	Default:     defaultElementTimeout,
	Min:         entity.Float(0),
	Max:         entity.Float(maxElementTimeout),
	Description: "Seconds to wait for the element before failing with element not found.",
}

type elementArgs struct {
	Selector string  `mapstructure:"selector"`
	Timeout  float64 `mapstructure:"timeout"`
}

func (a elementArgs) timeout() time.Duration {
	return seconds(a.Timeout)
}

// decode maps validated arguments onto a typed input struct.
func decode[T any](args entity.Arguments) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		ErrorUnused: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(args)); err != nil {
		return out, fmt.Errorf("decode arguments: %w", err)
	}
	return out, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewLen {
		return s
	}
	return string([]rune(s)[:previewLen]) + "..."
}
