// AngelaMos | 2026
// entity.go

package cms

import (
	"fmt"
	"time"
)

const (
	ContentCollection  = "cms_content"
	LayoutCollection   = "layout_settings"
	SettingsCollection = "global_settings"
)

type Metadata struct {
	Section     string    `json:"section,omitempty"   firestore:"section,omitempty"`
	Component   string    `json:"component,omitempty" firestore:"component,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"         firestore:"lastUpdated"`
	UpdatedBy   string    `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
}

type Content struct {
	Key      string   `json:"key"`
	Type     Kind     `json:"type"`
	Value    Value    `json:"value"`
	Metadata Metadata `json:"metadata"`
}

type Setting struct {
	Key         string    `json:"key"`
	Value       Value     `json:"value"`
	LastUpdated time.Time `json:"lastUpdated"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
}

type Layout struct {
	Component   string           `json:"component"`
	Styles      map[string]Value `json:"styles"`
	Visibility  map[string]bool  `json:"visibility"`
	LastUpdated time.Time        `json:"lastUpdated"`
	UpdatedBy   string           `json:"updatedBy,omitempty"`
}

// Stored forms. Values are kept in their natural shape so the hosted store
// and the JSON drivers agree on the encoding.

type contentDoc struct {
	Key      string   `json:"key"      firestore:"key"`
	Type     Kind     `json:"type"     firestore:"type"`
	Value    any      `json:"value"    firestore:"value"`
	Metadata Metadata `json:"metadata" firestore:"metadata"`
}

func (d contentDoc) toContent() (Content, error) {
	v, err := FromAny(d.Value)
	if err != nil {
		return Content{}, fmt.Errorf("content %s: %w", d.Key, err)
	}
	return Content{Key: d.Key, Type: d.Type, Value: v, Metadata: d.Metadata}, nil
}

type settingDoc struct {
	Key         string    `json:"key"                 firestore:"key"`
	Value       any       `json:"value"               firestore:"value"`
	LastUpdated time.Time `json:"lastUpdated"         firestore:"lastUpdated"`
	UpdatedBy   string    `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
}

func (d settingDoc) toSetting() (Setting, error) {
	v, err := FromAny(d.Value)
	if err != nil {
		return Setting{}, fmt.Errorf("setting %s: %w", d.Key, err)
	}
	return Setting{Key: d.Key, Value: v, LastUpdated: d.LastUpdated, UpdatedBy: d.UpdatedBy}, nil
}

type layoutDoc struct {
	Component   string          `json:"component"           firestore:"component"`
	Styles      map[string]any  `json:"styles"              firestore:"styles"`
	Visibility  map[string]bool `json:"visibility"          firestore:"visibility"`
	LastUpdated time.Time       `json:"lastUpdated"         firestore:"lastUpdated"`
	UpdatedBy   string          `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
}

func (d layoutDoc) toLayout() (Layout, error) {
	l := Layout{
		Component:   d.Component,
		Styles:      make(map[string]Value, len(d.Styles)),
		Visibility:  d.Visibility,
		LastUpdated: d.LastUpdated,
		UpdatedBy:   d.UpdatedBy,
	}
	if l.Visibility == nil {
		l.Visibility = map[string]bool{}
	}
	for k, raw := range d.Styles {
		v, err := FromAny(raw)
		if err != nil {
			return Layout{}, fmt.Errorf("layout %s style %q: %w", d.Component, k, err)
		}
		l.Styles[k] = v
	}
	return l, nil
}

type ContentInput struct {
	Type      Kind   `json:"type"      validate:"omitempty,oneof=string number boolean object"`
	Value     Value  `json:"value"`
	Section   string `json:"section"   validate:"omitempty,max=100"`
	Component string `json:"component" validate:"omitempty,max=100"`
}

type SettingInput struct {
	Value Value `json:"value"`
}

type LayoutPatch struct {
	Styles     map[string]Value `json:"styles"`
	Visibility map[string]bool  `json:"visibility"`
}
