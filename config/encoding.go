package config

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// nil means the source text is already UTF-8
var currentCharMap *charmap.Charmap

func SetEncoding(name string) error {
	if name == "" {
		currentCharMap = nil
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}
