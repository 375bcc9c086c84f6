package utils

import (
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
	spewConfig.SortKeys = true
}

func Dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// SPrint formats values on a single line without type annotations.
func SPrint(a ...interface{}) string {
	return spewConfig.Sprint(a...)
}

func LogDump(a ...interface{}) {
	log.Println(spewConfig.Sdump(a...))
}
