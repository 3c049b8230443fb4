// Package events publishes moderation notifications to RabbitMQ and runs the
// consumer that surfaces them in the logs.
package events

import "context"

const ModerationQueue = "experiencias.pendientes"

// ExperienceSubmitted is published when a visitor submits an experience that
// now waits for moderation.
type ExperienceSubmitted struct {
	ExperienciaID uint   `json:"experiencia_id"`
	LugarID       *uint  `json:"lugar_id,omitempty"`
	Descripcion   string `json:"descripcion"`
	URLFoto       string `json:"url_foto"`
	CreadoEn      string `json:"creado_en"`
}

type Publisher interface {
	PublishExperienceSubmitted(ctx context.Context, event ExperienceSubmitted) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishExperienceSubmitted(context.Context, ExperienceSubmitted) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
