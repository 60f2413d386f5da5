package output

import (
	"strconv"
	"strings"
)

// IntsCSV joins a with commas; an empty slice gives "".
func IntsCSV(a []int) string {
	if len(a) == 0 {
		return ""
	}
	ss := make([]string, len(a))
	for i, v := range a {
		ss[i] = strconv.Itoa(v)
	}
	return strings.Join(ss, ",")
}
