package identify

import (
	"encoding/base64"
	"net/http"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
)

// defaultMIMEType is assumed for raw base64 input without a data URI header
const defaultMIMEType = "image/jpeg"

// Image is a decoded photo ready to be sent to the gateway
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the image as data:<mime>;base64,<data>
func (i *Image) DataURI() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ParseImage accepts either a data URI or raw base64. Raw base64 is treated
// as JPEG.
func ParseImage(encoded string) (*Image, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, goerr.Wrap(model.ErrValidation, "image is empty")
	}

	mimeType := defaultMIMEType
	payload := encoded
	if strings.HasPrefix(encoded, "data:") {
		header, data, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, goerr.Wrap(model.ErrValidation, "data URI has no payload")
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, goerr.Wrap(model.ErrValidation, "data URI is not base64 encoded", goerr.V("header", header))
		}
		if m := strings.TrimSuffix(meta, ";base64"); m != "" {
			mimeType = m
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "image is not valid base64", goerr.V("error", err.Error()))
	}
	if len(data) == 0 {
		return nil, goerr.Wrap(model.ErrValidation, "image is empty")
	}

	return &Image{MIMEType: mimeType, Data: data}, nil
}

// LoadImage reads a photo from disk and detects its content type
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(model.ErrNotFound, "image file not found", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read image file", goerr.V("path", path))
	}
	if len(data) == 0 {
		return nil, goerr.Wrap(model.ErrValidation, "image file is empty", goerr.V("path", path))
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, goerr.Wrap(model.ErrValidation, "file is not an image",
			goerr.V("path", path), goerr.V("content_type", mimeType))
	}

	return &Image{MIMEType: mimeType, Data: data}, nil
}
