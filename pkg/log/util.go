package log

import (
	"fmt"

	"go.uber.org/zap"
)

// badKey is used for values whose key is missing or not a string.
const badKey = "!BADKEY"

// toFields turns logr style key/value arguments into zap fields.
// A bare error becomes the "error" field and a zap.Field is kept as is;
// everything else is consumed in pairs, with zap.Any picking the encoding.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			continue
		case error:
			fields = append(fields, zap.Error(v))
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(badKey, args[i]))
			break
		}

		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%s(%v)", badKey, args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
		i++
	}

	return fields
}
