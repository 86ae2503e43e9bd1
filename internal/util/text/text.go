package text

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// AvailableMapKeys renders the keys of a string-keyed map as a sorted,
// quoted, comma separated list, for use in help and error messages.
func AvailableMapKeys(m interface{}) string {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map {
		return ""
	}

	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, fmt.Sprintf("'%s'", k.String()))
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

func Commify(inVal int) string {
	return Commify64(int64(inVal))
}

func Commify64(inVal int64) string {
	inStr := strconv.FormatInt(inVal, 10)

	var sign string
	if inVal < 0 {
		sign, inStr = "-", inStr[1:]
	}

	outStr := make([]byte, 0, len(inStr)+len(inStr)/3)
	for i := range inStr {
		if i > 0 && (len(inStr)-i)%3 == 0 {
			outStr = append(outStr, ',')
		}
		outStr = append(outStr, inStr[i])
	}

	return sign + string(outStr)
}
