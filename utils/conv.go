package utils

import (
	"github.com/pkg/errors"
	"golang.org/x/text/transform"

	"github.com/mogaika/bvh_skinning/config"
)

// DecodeText converts text from the configured legacy encoding to UTF-8.
// With no encoding configured the input is returned as is.
func DecodeText(bs []byte) ([]byte, error) {
	cm := config.GetEncoding()
	if cm == nil {
		return bs, nil
	}
	s, _, err := transform.Bytes(cm.NewDecoder(), bs)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode text as %v", cm)
	}
	return s, nil
}
