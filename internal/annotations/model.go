package annotations

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pagemark/annotate/backend/internal/geometry"
)

const (
	defaultHighlightColor = "rgba(255, 255, 0, 0.4)"
	defaultDrawingColor   = "#000000"
	defaultLineWidth      = 2.0

	// MaxIntensity caps the repeat-highlight counter used by clients as an
	// opacity multiplier.
	MaxIntensity = 5
	minIntensity = 1
)

// ShapeKind tags the geometry variant carried by a drawing.
type ShapeKind string

const (
	ShapeFreehand  ShapeKind = "freehand"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeArrow     ShapeKind = "arrow"
)

var (
	ErrUnknownShape     = errors.New("annotations: unknown shape kind")
	ErrGeometryMismatch = errors.New("annotations: geometry does not match shape kind")
	errShortPath        = errors.New("annotations: freehand path needs at least two points")
)

// ParseShapeKind validates a raw shape value.
func ParseShapeKind(value string) (ShapeKind, error) {
	switch ShapeKind(value) {
	case ShapeFreehand, ShapeRectangle, ShapeCircle, ShapeArrow:
		return ShapeKind(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShape, value)
	}
}

// DocumentResolver maps an external document uuid to its internal id,
// enforcing ownership. A mismatch must surface as a not-found error.
type DocumentResolver interface {
	ResolveOwned(ctx context.Context, documentUUID, ownerID string) (string, error)
}

// RectList stores highlight rectangles as a JSON text column. Rectangles
// are document-space only.
type RectList []geometry.DocRect

// Value implements driver.Valuer for gorm persistence.
func (l RectList) Value() (driver.Value, error) {
	encoded, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan implements sql.Scanner for gorm persistence.
func (l *RectList) Scan(src interface{}) error {
	return scanJSONColumn(src, l)
}

// PointList stores a freehand path as a JSON text column.
type PointList []geometry.DocPoint

// Value implements driver.Valuer for gorm persistence.
func (l PointList) Value() (driver.Value, error) {
	encoded, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan implements sql.Scanner for gorm persistence.
func (l *PointList) Scan(src interface{}) error {
	return scanJSONColumn(src, l)
}

func scanJSONColumn(src, dest interface{}) error {
	switch value := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(value) == 0 {
			return nil
		}
		return json.Unmarshal(value, dest)
	case string:
		if value == "" {
			return nil
		}
		return json.Unmarshal([]byte(value), dest)
	default:
		return fmt.Errorf("annotations: cannot scan %T into json column", src)
	}
}

// Highlight models a persisted text-selection annotation.
type Highlight struct {
	ID         string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	DocumentID string    `gorm:"column:document_id;size:190;not null;index" json:"-"`
	OwnerID    string    `gorm:"column:owner_id;size:190;not null;index" json:"-"`
	PageNumber int       `gorm:"column:page_number;not null" json:"pageNumber"`
	Text       string    `gorm:"column:text;type:text;not null" json:"text"`
	Rects      RectList  `gorm:"column:rects;type:text;not null" json:"position"`
	Color      string    `gorm:"column:color;size:64;not null" json:"color"`
	Note       string    `gorm:"column:note;type:text" json:"note"`
	Intensity  int       `gorm:"column:intensity;not null;default:1" json:"intensity"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Highlight) TableName() string {
	return "highlights"
}

// Drawing models a persisted freehand stroke or primitive shape. The row
// carries both geometry column groups; the service guarantees exactly one
// is populated for the tagged shape kind.
type Drawing struct {
	ID         string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	DocumentID string    `gorm:"column:document_id;size:190;not null;index" json:"-"`
	OwnerID    string    `gorm:"column:owner_id;size:190;not null;index" json:"-"`
	PageNumber int       `gorm:"column:page_number;not null" json:"pageNumber"`
	Shape      ShapeKind `gorm:"column:shape;size:32;not null" json:"shape"`
	Path       PointList `gorm:"column:path;type:text" json:"path,omitempty"`
	StartX     float64   `gorm:"column:start_x" json:"startX"`
	StartY     float64   `gorm:"column:start_y" json:"startY"`
	EndX       float64   `gorm:"column:end_x" json:"endX"`
	EndY       float64   `gorm:"column:end_y" json:"endY"`
	Color      string    `gorm:"column:color;size:64;not null" json:"color"`
	LineWidth  float64   `gorm:"column:line_width;not null" json:"lineWidth"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// TableName provides the explicit table binding for GORM.
func (Drawing) TableName() string {
	return "drawings"
}

// Geometry is the tagged union of drawing shapes. Exactly one concrete
// variant applies per shape kind.
type Geometry interface {
	applyTo(kind ShapeKind, drawing *Drawing) error
}

// Freehand carries an ordered document-space stroke path.
type Freehand struct {
	Points []geometry.DocPoint
}

func (f Freehand) applyTo(kind ShapeKind, drawing *Drawing) error {
	if kind != ShapeFreehand {
		return fmt.Errorf("%w: path supplied for %s", ErrGeometryMismatch, kind)
	}
	if len(f.Points) < 2 {
		return errShortPath
	}
	drawing.Path = append(PointList(nil), f.Points...)
	drawing.StartX, drawing.StartY, drawing.EndX, drawing.EndY = 0, 0, 0, 0
	return nil
}

// Endpoints carries the document-space anchor pair of a primitive shape:
// opposite corners for rectangles, center and radius point for circles,
// tail and head for arrows.
type Endpoints struct {
	Start geometry.DocPoint
	End   geometry.DocPoint
}

func (e Endpoints) applyTo(kind ShapeKind, drawing *Drawing) error {
	if kind == ShapeFreehand {
		return fmt.Errorf("%w: endpoints supplied for %s", ErrGeometryMismatch, kind)
	}
	drawing.Path = nil
	drawing.StartX, drawing.StartY = e.Start.X, e.Start.Y
	drawing.EndX, drawing.EndY = e.End.X, e.End.Y
	return nil
}
