package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var durationType = reflect.TypeOf(time.Duration(0))

// maxSeconds is the largest whole-second count a time.Duration can hold.
const maxSeconds = math.MaxInt64 / int64(time.Second)

func seconds(n int64) (time.Duration, error) {
	if n > maxSeconds || n < -maxSeconds {
		return 0, fmt.Errorf("duration of %d seconds out of range", n)
	}
	return time.Duration(n) * time.Second, nil
}

// StringToDurationSeconds decodes time.Duration fields from Go duration
// strings ("90s", "1h") or bare integers, which are read as seconds.
func StringToDurationSeconds() mapstructure.DecodeHookFuncType {
	return func(f, t reflect.Type, data any) (any, error) {
		if t != durationType || f == durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if s == "" {
				return nil, fmt.Errorf("empty duration")
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return seconds(n)
			} else if errors.Is(err, strconv.ErrRange) {
				return nil, fmt.Errorf("duration %q: %w", s, err)
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, err
			}
			return d, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return seconds(reflect.ValueOf(data).Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u := reflect.ValueOf(data).Uint()
			if u > uint64(maxSeconds) {
				return nil, fmt.Errorf("duration of %d seconds out of range", u)
			}
			return seconds(int64(u))
		}
		return data, nil
	}
}
