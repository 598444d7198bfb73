package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"

	apperrors "github.com/Skryldev/photo-editor/errors"
	"github.com/Skryldev/photo-editor/filter"
)

// Snapshot is an opaque, versioned serialized form of a whole scene.
// Consumers treat it as write-once/read-as-whole; no partial field access
// across versions.
type Snapshot []byte

const snapshotVersion = 1

type snapshotJSON struct {
	Version    int          `json:"v"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Background string       `json:"background"`
	Objects    []objectJSON `json:"objects"`
}

type objectJSON struct {
	Kind       ObjectKind `json:"kind"`
	Left       float64    `json:"left"`
	Top        float64    `json:"top"`
	ScaleX     float64    `json:"scaleX"`
	ScaleY     float64    `json:"scaleY"`
	Angle      float64    `json:"angle,omitempty"`
	Selectable bool       `json:"selectable"`
	Evented    bool       `json:"evented"`

	Image *imageJSON  `json:"image,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
}

type imageJSON struct {
	SourceURL string          `json:"sourceUrl,omitempty"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Tainted   bool            `json:"tainted,omitempty"`
	Filters   []filter.Filter `json:"filters,omitempty"`
	// Pixels carries the image data as base64 PNG so a snapshot restores
	// without network access.
	Pixels string `json:"pixels,omitempty"`
}

// Serialize captures the entire scene as a Snapshot.
func (s *Scene) Serialize() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshotJSON{
		Version:    snapshotVersion,
		Width:      s.width,
		Height:     s.height,
		Background: s.background,
		Objects:    make([]objectJSON, 0, len(s.objects)),
	}
	for _, o := range s.objects {
		oj := objectJSON{
			Kind:       o.Kind,
			Left:       o.Left,
			Top:        o.Top,
			ScaleX:     o.ScaleX,
			ScaleY:     o.ScaleY,
			Angle:      o.Angle,
			Selectable: o.Selectable,
			Evented:    o.Evented,
		}
		switch o.Kind {
		case KindImage:
			ij := &imageJSON{
				SourceURL: o.Image.SourceURL,
				Width:     o.Image.Width,
				Height:    o.Image.Height,
				Tainted:   o.Image.Tainted,
				Filters:   append([]filter.Filter(nil), o.Image.Filters...),
			}
			if o.Image.Src != nil {
				var buf bytes.Buffer
				if err := png.Encode(&buf, o.Image.Src); err != nil {
					return nil, apperrors.Wrap(apperrors.CategorySnapshot, "scene.serialize", err)
				}
				ij.Pixels = base64.StdEncoding.EncodeToString(buf.Bytes())
			}
			oj.Image = ij
		case KindText:
			t := *o.Text
			oj.Text = &t
		case KindShape:
			sh := *o.Shape
			oj.Shape = &sh
		}
		snap.Objects = append(snap.Objects, oj)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySnapshot, "scene.serialize", err)
	}
	return Snapshot(data), nil
}

// Restore replaces the scene's dimensions and object list from snap.
// The snapshot is parsed and validated in full before any live state is
// touched: a malformed snapshot leaves the scene exactly as it was.
func (s *Scene) Restore(snap Snapshot) error {
	objects, parsed, err := parseSnapshot(snap)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("scene.restore.malformed", "error", err.Error())
		}
		return err
	}

	s.mu.Lock()
	s.width = parsed.Width
	s.height = parsed.Height
	s.background = parsed.Background
	s.objects = objects
	s.active = nil
	s.mu.Unlock()

	s.notify(Event{Kind: ChangeRestored})
	return nil
}

// parseSnapshot decodes snap into ready-to-install objects without touching
// any live scene state.
func parseSnapshot(snap Snapshot) ([]*Object, *snapshotJSON, error) {
	var parsed snapshotJSON
	if err := json.Unmarshal(snap, &parsed); err != nil {
		return nil, nil, apperrors.New(apperrors.CategorySnapshot, "scene.restore",
			fmt.Errorf("%w: %v", apperrors.ErrMalformedSnapshot, err))
	}
	if parsed.Version != snapshotVersion {
		return nil, nil, apperrors.New(apperrors.CategorySnapshot, "scene.restore",
			fmt.Errorf("%w: unknown version %d", apperrors.ErrMalformedSnapshot, parsed.Version))
	}
	if parsed.Width <= 0 || parsed.Height <= 0 {
		return nil, nil, apperrors.New(apperrors.CategorySnapshot, "scene.restore",
			fmt.Errorf("%w: non-positive dimensions", apperrors.ErrMalformedSnapshot))
	}

	objects := make([]*Object, 0, len(parsed.Objects))
	for i, oj := range parsed.Objects {
		obj := &Object{
			Kind:       oj.Kind,
			Left:       oj.Left,
			Top:        oj.Top,
			ScaleX:     oj.ScaleX,
			ScaleY:     oj.ScaleY,
			Angle:      oj.Angle,
			Selectable: oj.Selectable,
			Evented:    oj.Evented,
		}
		switch oj.Kind {
		case KindImage:
			if oj.Image == nil {
				return nil, nil, malformedObject(i, "image payload missing")
			}
			ip := &ImageProps{
				SourceURL: oj.Image.SourceURL,
				Width:     oj.Image.Width,
				Height:    oj.Image.Height,
				Tainted:   oj.Image.Tainted,
				Filters:   append([]filter.Filter(nil), oj.Image.Filters...),
			}
			if oj.Image.Pixels != "" {
				raw, err := base64.StdEncoding.DecodeString(oj.Image.Pixels)
				if err != nil {
					return nil, nil, malformedObject(i, "bad pixel encoding")
				}
				src, err := png.Decode(bytes.NewReader(raw))
				if err != nil {
					return nil, nil, malformedObject(i, "bad pixel data")
				}
				ip.Src = src
				b := src.Bounds()
				ip.Width, ip.Height = b.Dx(), b.Dy()
			}
			obj.Image = ip
		case KindText:
			if oj.Text == nil {
				return nil, nil, malformedObject(i, "text payload missing")
			}
			t := *oj.Text
			obj.Text = &t
		case KindShape:
			if oj.Shape == nil {
				return nil, nil, malformedObject(i, "shape payload missing")
			}
			sh := *oj.Shape
			obj.Shape = &sh
		default:
			return nil, nil, malformedObject(i, "unknown kind")
		}
		objects = append(objects, obj)
	}
	return objects, &parsed, nil
}

func malformedObject(index int, reason string) error {
	return apperrors.New(apperrors.CategorySnapshot, "scene.restore",
		fmt.Errorf("%w: object %d: %s", apperrors.ErrMalformedSnapshot, index, reason))
}
