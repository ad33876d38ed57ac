package documents

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspector validates an uploaded payload as a PDF and reports its page
// count before any storage side effect happens.
type Inspector interface {
	PageCount(payload []byte) (int, error)
}

var errNotAPDF = errors.New("documents: payload is not a valid PDF")

type pdfInspector struct {
	config *model.Configuration
}

// NewPDFInspector returns the pdfcpu-backed Inspector used in production.
func NewPDFInspector() Inspector {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return &pdfInspector{config: cfg}
}

func (i *pdfInspector) PageCount(payload []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(payload), i.config)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errNotAPDF, err)
	}
	if count < 1 {
		return 0, errNotAPDF
	}
	return count, nil
}
