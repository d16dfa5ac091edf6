package popit

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode maps a value returned by a verb (map[string]any, []any, ...) onto
// out, which must be a pointer. Struct fields are matched by their json tags.
//
//	var person struct {
//	  ID   string `json:"id"`
//	  Name string `json:"name"`
//	}
//	err := popit.Decode(value, &person)
func Decode(value any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
		),
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}

	err = decoder.Decode(value)
	if err != nil {
		return fmt.Errorf("decoding value: %w", err)
	}

	return nil
}
